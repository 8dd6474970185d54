package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/filedex/internal/types"
)

func TestScoreWithinUnitInterval(t *testing.T) {
	r := New()
	now := time.Now()
	rec := types.FileRecord{Path: "/a/b/c.txt", ModifiedAt: now.AddDate(0, 0, -5), AccessCount: 50}

	score := r.Score(rec, 1.0, now.Unix())
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestRankTieBreaksByPathAscending(t *testing.T) {
	r := New()
	now := time.Now().Unix()
	results := []types.SearchResult{
		{Record: types.FileRecord{Path: "/z.txt", ModifiedAt: time.Now()}, Score: 1.0},
		{Record: types.FileRecord{Path: "/a.txt", ModifiedAt: time.Now()}, Score: 1.0},
	}
	ranked := r.Rank(results, now)
	assert.Equal(t, "/a.txt", ranked[0].Record.Path)
	assert.Equal(t, "/z.txt", ranked[1].Record.Path)
}

func TestRankSortsDescendingByScore(t *testing.T) {
	r := New()
	now := time.Now().Unix()
	results := []types.SearchResult{
		{Record: types.FileRecord{Path: "/low", ModifiedAt: time.Now().AddDate(-2, 0, 0)}, Score: 0.1},
		{Record: types.FileRecord{Path: "/high", ModifiedAt: time.Now()}, Score: 1.0},
	}
	ranked := r.Rank(results, now)
	assert.Equal(t, "/high", ranked[0].Record.Path)
}

func TestBoostByExtensionReorders(t *testing.T) {
	r := New()
	results := []types.SearchResult{
		{Record: types.FileRecord{Path: "/a.txt", Extension: "txt"}, Score: 0.5},
		{Record: types.FileRecord{Path: "/b.go", Extension: "go"}, Score: 0.5},
	}
	boosted := r.BoostByExtension(results, []string{"go"})
	assert.Equal(t, "/b.go", boosted[0].Record.Path)
}
