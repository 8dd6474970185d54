package index

import (
	"context"

	"github.com/standardbeagle/filedex/internal/bloom"
	"github.com/standardbeagle/filedex/internal/cache"
	"github.com/standardbeagle/filedex/internal/config"
	"github.com/standardbeagle/filedex/internal/store"
	"github.com/standardbeagle/filedex/internal/types"
)

// Indexer owns the single writer goroutine that commits every record
// upsert (spec.md §5, §9's writer-task design note): walker workers
// only ever send FileRecords over recordCh, never touch the Store
// directly. Deletions made by Reconcile and UpdateFile go to the Store
// without passing through the writer.
type Indexer struct {
	cfg   config.Config
	store *store.Store
	bloom *bloom.Filter
	cache *cache.Cache

	recordCh chan types.FileRecord
	flushCh  chan chan struct{}
	done     chan struct{}
}

func New(cfg config.Config, st *store.Store, bf *bloom.Filter, c *cache.Cache) *Indexer {
	idx := &Indexer{
		cfg:      cfg,
		store:    st,
		bloom:    bf,
		cache:    c,
		recordCh: make(chan types.FileRecord, batchSize*4),
		flushCh:  make(chan chan struct{}),
		done:     make(chan struct{}),
	}
	go idx.writerLoop()
	return idx
}

// Close stops the writer goroutine after flushing any buffered
// records.
func (idx *Indexer) Close() {
	close(idx.recordCh)
	<-idx.done
}

func (idx *Indexer) submit(ctx context.Context, rec types.FileRecord) {
	select {
	case idx.recordCh <- rec:
	case <-ctx.Done():
	}
}

// flushBatch blocks until every record submitted so far has been
// committed to the store.
func (idx *Indexer) flushBatch(ctx context.Context) {
	ack := make(chan struct{})
	select {
	case idx.flushCh <- ack:
		<-ack
	case <-ctx.Done():
	}
}

func (idx *Indexer) writerLoop() {
	defer close(idx.done)
	batch := make([]types.FileRecord, 0, batchSize)

	commit := func() {
		if len(batch) == 0 {
			return
		}
		ctx := context.Background()
		if err := idx.store.UpsertBatch(ctx, batch); err == nil {
			for _, r := range batch {
				idx.bloom.Insert(r.Path)
			}
			idx.cache.Invalidate()
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec, ok := <-idx.recordCh:
			if !ok {
				commit()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				commit()
			}
		case ack := <-idx.flushCh:
			// records submitted before flushBatch are already buffered in
			// recordCh; drain them so the ack covers every one of them.
			for drained := false; !drained; {
				select {
				case rec, ok := <-idx.recordCh:
					if !ok {
						commit()
						close(ack)
						return
					}
					batch = append(batch, rec)
				default:
					drained = true
				}
			}
			commit()
			close(ack)
		}
	}
}
