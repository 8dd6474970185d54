package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/filedex/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(path string) types.FileRecord {
	return types.FileRecord{
		Path: path, ParentPath: filepath.Dir(path), Name: filepath.Base(path),
		Extension: "txt", Size: 10, ModifiedAt: time.Now(), IndexedAt: time.Now(), LastVerified: time.Now(),
	}
}

// P1: re-upserting an existing path updates in place, no duplicate rows.
func TestUpsertBatchIsIdempotentByPath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBatch(ctx, []types.FileRecord{rec("/root/a.txt")}))

	updated := rec("/root/a.txt")
	updated.Size = 99
	require.NoError(t, s.UpsertBatch(ctx, []types.FileRecord{updated}))

	got, ok, err := s.FindByPath(ctx, "/root/a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(99), got.Size)

	paths, err := s.AllPaths("/root")
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestDeleteByPrefixRemovesSubtree(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertBatch(ctx, []types.FileRecord{
		rec("/root/a.txt"), rec("/root/sub/b.txt"), rec("/other/c.txt"),
	}))

	n, err := s.DeleteByPrefix(ctx, "/root")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	paths, err := s.AllPaths("/other")
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestQueryCandidatesFiltersByExtension(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r1 := rec("/root/a.go")
	r1.Extension = "go"
	r2 := rec("/root/b.txt")
	r2.Extension = "txt"
	require.NoError(t, s.UpsertBatch(ctx, []types.FileRecord{r1, r2}))

	results, err := s.QueryCandidates(ctx, "/root", types.Query{Extensions: []string{"go"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/root/a.go", results[0].Path)
}

func TestRecordAccessIncrements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertBatch(ctx, []types.FileRecord{rec("/root/a.txt")}))

	require.NoError(t, s.RecordAccess(ctx, "/root/a.txt", time.Now()))
	require.NoError(t, s.RecordAccess(ctx, "/root/a.txt", time.Now()))

	got, ok, err := s.FindByPath(ctx, "/root/a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.AccessCount)
}

func TestClearAllEmptiesStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertBatch(ctx, []types.FileRecord{rec("/root/a.txt")}))

	require.NoError(t, s.ClearAll(ctx))

	paths, err := s.AllPaths("/root")
	require.NoError(t, err)
	assert.Empty(t, paths)
}
