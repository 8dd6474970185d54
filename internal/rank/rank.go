// Package rank scores and orders SearchResults using spec.md's exact
// formula. original_source's ResultRanker is structural grounding
// only (struct shape, stable sort-then-tiebreak) — its weights and
// day-bucketed recency are deliberately not reused; see DESIGN.md.
package rank

import (
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/standardbeagle/filedex/internal/types"
)

const (
	weightMatch = 0.5
	weightRecency = 0.3
	weightDepth = 0.2
	maxAccessBonus = 0.1
)

// Ranker computes and sorts result scores.
type Ranker struct{}

func New() Ranker { return Ranker{} }

// Score computes spec.md's score for one record given its raw
// match_score in [0,1] and the current time.
func (Ranker) Score(rec types.FileRecord, matchScore float64, now int64) float64 {
	ageDays := float64(now-rec.ModifiedAt.Unix()) / 86400.0
	if ageDays < 0 {
		ageDays = 0
	}
	recency := math.Exp(-ageDays / 30.0)

	depth := pathDepth(rec.Path)
	depthPenalty := 1.0 / (1.0 + float64(depth))

	accessBonus := math.Min(maxAccessBonus, math.Log(1+float64(rec.AccessCount))/100.0)

	score := weightMatch*matchScore + weightRecency*recency + weightDepth*depthPenalty + accessBonus
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

func pathDepth(path string) int {
	clean := filepath.ToSlash(filepath.Clean(path))
	return strings.Count(strings.Trim(clean, "/"), "/")
}

// Rank rescores every result in place, taking its incoming Score as
// the match_score, and sorts descending by score, ties broken by ascending path (I6,
// P5).
func (r Ranker) Rank(results []types.SearchResult, now int64) []types.SearchResult {
	for i := range results {
		results[i].Score = r.Score(results[i].Record, results[i].Score, now)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.Path < results[j].Record.Path
	})
	return results
}

// BoostByExtension multiplies the score of results whose extension is
// in preferred by 1.2, then re-sorts. Opt-in via the boost_ext: query
// key; never applied to the default ranking (SPEC_FULL.md §4.6).
func (Ranker) BoostByExtension(results []types.SearchResult, preferred []string) []types.SearchResult {
	if len(preferred) == 0 {
		return results
	}
	set := make(map[string]bool, len(preferred))
	for _, e := range preferred {
		set[strings.ToLower(e)] = true
	}
	for i := range results {
		if set[strings.ToLower(results[i].Record.Extension)] {
			results[i].Score *= 1.2
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}

// BoostBySize rewards smaller (ascending) or larger (descending)
// files relative to the result set's max size. Opt-in via boost_size:.
func (Ranker) BoostBySize(results []types.SearchResult, ascending bool) []types.SearchResult {
	if len(results) == 0 {
		return results
	}
	var maxSize int64 = 1
	for _, r := range results {
		if r.Record.Size > maxSize {
			maxSize = r.Record.Size
		}
	}
	for i := range results {
		ratio := float64(results[i].Record.Size) / float64(maxSize)
		sizeScore := ratio
		if ascending {
			sizeScore = 1.0 - ratio
		}
		results[i].Score *= 1.0 + sizeScore*0.1
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	return results
}
