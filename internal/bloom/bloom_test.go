package bloom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndMightContain_NoFalseNegatives(t *testing.T) {
	f := New(1000, 0.01)
	paths := []string{"/a/b.txt", "/a/c.txt", "/a/d/e.go"}
	for _, p := range paths {
		f.Insert(p)
	}
	for _, p := range paths {
		assert.True(t, f.MightContain(p), "must never report absent for an inserted path")
	}
}

func TestClearResetsFilter(t *testing.T) {
	f := New(100, 0.01)
	f.Insert("/x")
	require.True(t, f.MightContain("/x"))
	f.Clear()
	assert.Equal(t, uint64(0), f.Len())
	assert.True(t, f.IsEmpty())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx.bloom")

	f := New(1000, 0.01)
	f.Insert("/a")
	f.Insert("/b")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.MightContain("/a"))
	assert.True(t, loaded.MightContain("/b"))
	assert.Equal(t, f.Len(), loaded.Len())
}

func TestLoadRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bloom")
	require.NoError(t, os.WriteFile(path, []byte("not a bloom file"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

type fakeSource struct{ paths []string }

func (s fakeSource) AllPaths(root string) ([]string, error) { return s.paths, nil }

func TestRebuildFrom(t *testing.T) {
	f := New(100, 0.01)
	f.Insert("/stale")
	src := fakeSource{paths: []string{"/fresh/a", "/fresh/b"}}

	require.NoError(t, f.RebuildFrom(src, "/fresh"))
	assert.True(t, f.MightContain("/fresh/a"))
	assert.True(t, f.MightContain("/fresh/b"))
	assert.Equal(t, uint64(2), f.Len())
}
