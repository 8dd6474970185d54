// Package engine binds the Store, BloomFilter, LruCache, Indexer,
// Searcher and Watcher behind the façade external callers use.
// Grounded nearly 1:1 on original_source's SearchEngine /
// SearchEngineBuilder.
package engine

import (
	"context"
	"path/filepath"

	"github.com/standardbeagle/filedex/internal/bloom"
	"github.com/standardbeagle/filedex/internal/cache"
	"github.com/standardbeagle/filedex/internal/config"
	"github.com/standardbeagle/filedex/internal/index"
	"github.com/standardbeagle/filedex/internal/query"
	"github.com/standardbeagle/filedex/internal/rank"
	"github.com/standardbeagle/filedex/internal/store"
	"github.com/standardbeagle/filedex/internal/types"
	"github.com/standardbeagle/filedex/internal/watch"
)

// Engine is the top-level handle a caller opens, indexes through,
// searches against, and watches.
type Engine struct {
	cfg     config.Config
	root    string
	store   *store.Store
	bloom   *bloom.Filter
	cache   *cache.Cache
	indexer *index.Indexer
	watcher *watch.Watcher
	search  *searcher

	bloomPath string
}

// Builder constructs an Engine, mirroring SearchEngineBuilder's
// fluent configuration surface.
type Builder struct {
	root string
	cfg  *config.Config
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) WithRoot(root string) *Builder {
	b.root = root
	return b
}

func (b *Builder) WithConfig(cfg config.Config) *Builder {
	b.cfg = &cfg
	return b
}

// Build opens the Store, loads or rebuilds the BloomFilter, and wires
// every component together.
func (b *Builder) Build(ctx context.Context) (*Engine, error) {
	root, err := filepath.Abs(b.root)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if b.cfg != nil {
		cfg = *b.cfg
	} else {
		loaded, err := config.Load(root)
		if err == nil {
			cfg = loaded
		}
	}
	cfg.Project.Root = root

	dbPath := cfg.Store.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(root, dbPath)
	}

	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	bloomPath := dbPath + ".bloom"
	bf, err := bloom.Load(bloomPath)
	if err != nil {
		bf = bloom.New(cfg.Bloom.Capacity, cfg.Bloom.ErrorRate)
		_ = bf.RebuildFrom(st, root)
	}

	c := cache.New(cfg.Search.CacheSize)
	idx := index.New(cfg, st, bf, c)

	e := &Engine{
		cfg:       cfg,
		root:      root,
		store:     st,
		bloom:     bf,
		cache:     c,
		indexer:   idx,
		bloomPath: bloomPath,
		search: &searcher{
			store:          st,
			bloom:          bf,
			cache:          c,
			ranker:         rank.New(),
			fuzzyThreshold: cfg.Search.FuzzyThreshold,
			defaultLimit:   cfg.Search.DefaultLimit,
		},
	}
	e.watcher = watch.New(cfg, idx)
	return e, nil
}

// IndexRoot walks root and commits every discovered record.
func (e *Engine) IndexRoot(ctx context.Context, root string, opts index.WalkOptions) (types.WalkStats, error) {
	return e.indexer.Walk(ctx, root, opts)
}

// Reconcile performs an incremental add/update/remove diff under root.
func (e *Engine) Reconcile(ctx context.Context, root string) (types.ReconcileStats, error) {
	return e.indexer.Reconcile(ctx, root)
}

// VerifyIndex cross-checks indexed records under root against the
// live filesystem.
func (e *Engine) VerifyIndex(ctx context.Context, root string) (types.VerifyStats, error) {
	return e.indexer.VerifyIndex(ctx, root)
}

// Search runs q against the index rooted at Engine's root.
func (e *Engine) Search(ctx context.Context, q types.Query) (types.SearchResponse, error) {
	return e.search.search(ctx, e.root, q)
}

// Watch starts watching root for filesystem changes, feeding the
// Indexer's incremental path.
func (e *Engine) Watch(ctx context.Context, root string) (watch.Handle, error) {
	return e.watcher.Watch(ctx, root)
}

// ClearIndex deletes every table's rows in one store transaction, then
// clears the bloom filter and invalidates the cache. Open Question 1:
// an in-flight Search reads either the pre-clear or the post-clear
// state, never a torn read (WAL snapshot isolation). ClearIndex takes
// no writer lock and does not drain records still queued in the
// indexer's writer; those are committed after the clear.
func (e *Engine) ClearIndex(ctx context.Context) error {
	if err := e.store.ClearAll(ctx); err != nil {
		return err
	}
	e.bloom.Clear()
	e.cache.Invalidate()
	return nil
}

// Stats aggregates store, bloom and cache sizing for external callers.
func (e *Engine) Stats(ctx context.Context) (types.EngineStats, error) {
	ss, err := e.store.Stats(ctx)
	if err != nil {
		return types.EngineStats{}, err
	}
	return types.EngineStats{
		Store:     ss,
		BloomSize: e.bloom.Len(),
		CacheSize: e.cache.Len(),
	}, nil
}

// RecentQueries returns the most recent persisted search history
// entries.
func (e *Engine) RecentQueries(limit int) ([]types.QueryHistoryEntry, error) {
	return e.store.RecentQueries(context.Background(), limit)
}

// Close flushes the bloom filter to disk, stops the indexer's writer
// goroutine, and closes the store.
func (e *Engine) Close() error {
	e.indexer.Close()
	_ = e.bloom.Save(e.bloomPath)
	return e.store.Close()
}

// ParseQuery exposes the query package's parser so callers don't need
// to import internal/query directly.
func ParseQuery(text string) (types.Query, error) {
	return query.Parse(text)
}
