// Package watch provides debounced filesystem-event ingestion feeding
// the Indexer's incremental reconcile path. Grounded on the teacher's
// FileWatcher/eventDebouncer (timer-reset-per-event, single flush per
// window) rather than original_source's
// process-immediately-then-suppress model — see DESIGN.md.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/standardbeagle/filedex/internal/config"
	"github.com/standardbeagle/filedex/internal/errs"
)

// Reconciler is the subset of Indexer the watcher needs: reconciling
// one path at a time keeps a watch event from triggering a full-tree
// rescan.
type Reconciler interface {
	UpdateFile(ctx context.Context, root, path string) error
}

// Stats summarizes one watch's activity.
type Stats struct {
	EventsObserved int64
	FlushesEmitted int64
}

// Handle is the opaque watch identifier and control surface spec.md
// names WatchId/WatchHandle.
type Handle struct {
	ID    uuid.UUID
	stop  func()
	stats *Stats
}

func (h Handle) Stop() { h.stop() }

// Stats returns a snapshot of this watch's activity counters.
func (h Handle) Stats() Stats {
	return Stats{
		EventsObserved: atomic.LoadInt64(&h.stats.EventsObserved),
		FlushesEmitted: atomic.LoadInt64(&h.stats.FlushesEmitted),
	}
}

// Watcher owns one fsnotify.Watcher per watched root, recursively
// adding directories as they are discovered, and debounces events per
// path before dispatching a net-effect reconcile.
type Watcher struct {
	cfg        config.Config
	reconciler Reconciler
}

func New(cfg config.Config, r Reconciler) *Watcher {
	return &Watcher{cfg: cfg, reconciler: r}
}

type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingChange
	pendingRemove
	pendingCreate
)

// Watch starts watching root and returns a Handle to stop it. Events
// within cfg.Watch.DebounceMs of one another for the same path are
// coalesced into a single net effect: a remove wins, otherwise a
// create wins over a change (see mergeKind).
func (w *Watcher) Watch(ctx context.Context, root string) (Handle, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return Handle{}, errs.New(errs.KindWatchBackend, "creating fsnotify watcher", err)
	}

	if err := addRecursive(fw, root); err != nil {
		fw.Close()
		return Handle{}, errs.WithPath(errs.KindWatchBackend, root, "adding watch root", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	stats := &Stats{}
	d := newDebouncer(w.cfg.Watch.DebounceMs, func(path string, kind pendingKind) {
		atomic.AddInt64(&stats.FlushesEmitted, 1)
		_ = w.reconciler.UpdateFile(watchCtx, root, path)
		if kind == pendingCreate {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				_ = fw.Add(path)
			}
		}
	})

	go func() {
		defer fw.Close()
		defer d.stopAll()
		for {
			select {
			case <-watchCtx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				atomic.AddInt64(&stats.EventsObserved, 1)
				d.note(ev.Name, classify(ev.Op))
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return Handle{ID: uuid.New(), stop: func() { cancel() }, stats: stats}, nil
}

func classify(op fsnotify.Op) pendingKind {
	switch {
	case op&fsnotify.Remove != 0 || op&fsnotify.Rename != 0:
		return pendingRemove
	case op&fsnotify.Create != 0:
		return pendingCreate
	default:
		return pendingChange
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}

// debouncer resets a per-path timer on every new event and fires a
// single callback carrying the net effect once the window elapses,
// with remove taking priority over create taking priority over
// change.
type debouncer struct {
	mu       sync.Mutex
	windowMs int
	timers   map[string]*time.Timer
	pending  map[string]pendingKind
	flush    func(path string, kind pendingKind)
}

func newDebouncer(windowMs int, flush func(string, pendingKind)) *debouncer {
	if windowMs <= 0 {
		windowMs = 300
	}
	return &debouncer{
		windowMs: windowMs,
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]pendingKind),
		flush:    flush,
	}
}

func (d *debouncer) note(path string, kind pendingKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing := d.pending[path]; existing == pendingRemove {
		// a remove always wins the window regardless of later events.
	} else {
		d.pending[path] = mergeKind(existing, kind)
	}

	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.timers[path] = time.AfterFunc(time.Duration(d.windowMs)*time.Millisecond, func() {
		d.mu.Lock()
		k := d.pending[path]
		delete(d.pending, path)
		delete(d.timers, path)
		d.mu.Unlock()
		if k != pendingNone {
			d.flush(path, k)
		}
	})
}

func mergeKind(existing, incoming pendingKind) pendingKind {
	if existing == pendingNone {
		return incoming
	}
	if incoming == pendingRemove {
		return pendingRemove
	}
	if existing == pendingCreate && incoming == pendingChange {
		return pendingCreate
	}
	return incoming
}

func (d *debouncer) stopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers {
		t.Stop()
	}
}
