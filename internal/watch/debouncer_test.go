package watch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// A burst of events for one path within the debounce window coalesces
// into a single flush carrying the net effect.
func TestDebouncerCoalescesBurstIntoSingleFlush(t *testing.T) {
	var mu sync.Mutex
	var flushes []pendingKind

	d := newDebouncer(30, func(path string, kind pendingKind) {
		mu.Lock()
		flushes = append(flushes, kind)
		mu.Unlock()
	})

	d.note("/a", pendingChange)
	d.note("/a", pendingChange)
	d.note("/a", pendingCreate)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, flushes, 1, "events within the window must coalesce into one flush")
}

// A remove within the window always wins regardless of later events.
func TestDebouncerRemoveTakesPriority(t *testing.T) {
	var mu sync.Mutex
	var got pendingKind

	d := newDebouncer(30, func(path string, kind pendingKind) {
		mu.Lock()
		got = kind
		mu.Unlock()
	})

	d.note("/a", pendingChange)
	d.note("/a", pendingRemove)
	d.note("/a", pendingCreate)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, pendingRemove, got)
}

func TestDebouncerSeparatesDistinctPaths(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]pendingKind{}

	d := newDebouncer(20, func(path string, kind pendingKind) {
		mu.Lock()
		seen[path] = kind
		mu.Unlock()
	})

	d.note("/a", pendingCreate)
	d.note("/b", pendingChange)

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, pendingCreate, seen["/a"])
	assert.Equal(t, pendingChange, seen["/b"])
}
