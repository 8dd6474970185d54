package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/filedex/internal/types"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(4)
	results := []types.SearchResult{{Record: types.FileRecord{Path: "/a"}, Score: 0.9}}
	c.Put(1, results)

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestInvalidateStalesEntries(t *testing.T) {
	c := New(4)
	c.Put(1, []types.SearchResult{{Record: types.FileRecord{Path: "/a"}}})
	c.Invalidate()

	_, ok := c.Get(1)
	assert.False(t, ok, "entries from before Invalidate must never be returned after it")
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put(1, nil)
	c.Put(2, nil)
	c.Get(1) // touch 1, making 2 the LRU
	c.Put(3, nil)

	_, ok := c.Get(2)
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get(1)
	assert.True(t, ok)
	_, ok = c.Get(3)
	assert.True(t, ok)
}
