package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/filedex/internal/bloom"
	"github.com/standardbeagle/filedex/internal/cache"
	"github.com/standardbeagle/filedex/internal/config"
	"github.com/standardbeagle/filedex/internal/store"
)

func newTestIndexer(t *testing.T) (*Indexer, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(context.Background(), filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	bf := bloom.New(1000, 0.01)
	c := cache.New(64)
	idx := New(cfg, st, bf, c)
	t.Cleanup(idx.Close)
	return idx, st
}

func TestWalkIndexesFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.go"), []byte("package main"), 0o644))

	idx, st := newTestIndexer(t)
	stats, err := idx.Walk(context.Background(), root, WalkOptions{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.FilesIndexed)
	assert.Equal(t, int64(1), stats.DirsIndexed)

	paths, err := st.AllPaths(root)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
}

// P6: reconcile after a rename (delete + create) converges to the
// same record count as a fresh Walk.
func TestReconcileConvergesAfterRename(t *testing.T) {
	root := t.TempDir()
	original := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(original, []byte("content"), 0o644))

	idx, st := newTestIndexer(t)
	ctx := context.Background()
	_, err := idx.Walk(ctx, root, WalkOptions{Workers: 2})
	require.NoError(t, err)

	require.NoError(t, os.Rename(original, filepath.Join(root, "renamed.txt")))

	_, err = idx.Reconcile(ctx, root)
	require.NoError(t, err)

	paths, err := st.AllPaths(root)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(root, "renamed.txt"), paths[0])
}

func TestReconcileDetectsRemoval(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	idx, st := newTestIndexer(t)
	ctx := context.Background()
	_, err := idx.Walk(ctx, root, WalkOptions{Workers: 1})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	stats, err := idx.Reconcile(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Removed)

	paths, err := st.AllPaths(root)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestIsLikelyTextRejectsBinary(t *testing.T) {
	assert.True(t, isLikelyText([]byte("hello world, this is text")))
	assert.False(t, isLikelyText([]byte{0x00, 0x01, 0x02, 0xFF}))
}

func TestTokenizeNormalizesAndFilters(t *testing.T) {
	tokens := tokenize("Hello, World! a bb supercalifragilisticexpialidocioussupercalifragilisticexpialidocious", false)
	assert.Contains(t, tokens, "hello")
	assert.Contains(t, tokens, "world")
	assert.Contains(t, tokens, "bb")
	assert.NotContains(t, tokens, "a") // length-1 tokens dropped
}
