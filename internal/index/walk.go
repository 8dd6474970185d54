package index

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/filedex/internal/config"
	"github.com/standardbeagle/filedex/internal/errs"
	"github.com/standardbeagle/filedex/internal/types"
)

// WalkOptions tunes one Walk invocation.
type WalkOptions struct {
	Workers int // 0 uses Config.Index.Workers
}

const batchSize = 200

// dirTask is one directory awaiting expansion by a worker.
type dirTask struct {
	path string
}

// Walk performs a parallel directory traversal rooted at root,
// classifying and batching records to the writer goroutine. Grounded
// on the teacher's FileScanner.ScanDirectory channel/worker-pool
// design and original_source's DirectoryWalker::walk_parallel, with
// symlink cycles broken by a visited set of resolved symlink targets
// (sync.Map standing in for walker.rs's DashSet — no pack library
// targets a concurrent set this narrowly; see DESIGN.md). The set is
// keyed by the target's base name, modification time and size, not by
// (device, inode): a symlink whose target shares all three with one
// already visited is skipped even if it is a different file.
func (idx *Indexer) Walk(ctx context.Context, root string, opts WalkOptions) (types.WalkStats, error) {
	root = filepath.Clean(root)
	workers := opts.Workers
	if workers <= 0 {
		workers = idx.cfg.Index.Workers
	}
	if workers <= 0 {
		workers = 4
	}

	excl := config.NewExclusion(root, idx.cfg.Index.Exclude)

	var stats types.WalkStats
	var visited sync.Map // canonical key -> struct{}

	tasks := make(chan dirTask, workers*4)
	var pending sync.WaitGroup

	g, gctx := errgroup.WithContext(ctx)

	enqueue := func(t dirTask) {
		pending.Add(1)
		select {
		case tasks <- t:
		case <-gctx.Done():
			pending.Done()
		}
	}

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case t, ok := <-tasks:
					if !ok {
						return nil
					}
					idx.processDir(gctx, t.path, root, excl, &visited, enqueue, &stats)
					pending.Done()
				}
			}
		})
	}

	enqueue(dirTask{path: root})

	go func() {
		pending.Wait()
		close(tasks)
	}()

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return stats, errs.New(errs.KindCancelled, "walk cancelled", ctx.Err())
		}
		return stats, errs.WithPath(errs.KindWalk, root, "walking directory tree", err)
	}

	idx.flushBatch(ctx)
	return stats, nil
}

func (idx *Indexer) processDir(ctx context.Context, dir, root string, excl *config.Exclusion, visited *sync.Map, enqueue func(dirTask), stats *types.WalkStats) {
	excl.LoadGitignore(dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()

		if excl.Excluded(path, isDir) {
			atomic.AddInt64(&stats.Skipped, 1)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			continue
		}

		isSymlink := info.Mode()&os.ModeSymlink != 0
		if isSymlink {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			rinfo, err := os.Stat(resolved)
			if err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			key := sameFileKey(rinfo)
			if _, loaded := visited.LoadOrStore(key, struct{}{}); loaded {
				continue // already visited: symlink cycle
			}
			if rinfo.IsDir() {
				isDir = true
			}
			info = rinfo
		}

		rec := idx.buildRecord(path, root, info, isDir, isSymlink)

		if isDir {
			atomic.AddInt64(&stats.DirsIndexed, 1)
			idx.submit(ctx, rec)
			enqueue(dirTask{path: path})
			continue
		}

		atomic.AddInt64(&stats.FilesIndexed, 1)
		idx.submit(ctx, rec)
	}
}

func sameFileKey(info os.FileInfo) string {
	// os.SameFile requires two FileInfo values; as a map key we fall
	// back to the resolved path's string form via Name()+ModTime()+Size
	// when the platform-specific stat_t isn't directly comparable here.
	return info.Name() + "|" + info.ModTime().String() + "|" + strconv.FormatInt(info.Size(), 10)
}

func (idx *Indexer) buildRecord(path, root string, info os.FileInfo, isDir, isSymlink bool) types.FileRecord {
	name := info.Name()
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	parent := filepath.Dir(path)
	now := time.Now()

	rec := types.FileRecord{
		Path:       path,
		ParentPath: parent,
		Name:       name,
		Extension:  ext,
		Size:       info.Size(),
		Mode:       uint32(info.Mode()),
		ModifiedAt: info.ModTime(),
		IndexedAt:  now,
		LastVerified: now,
		IsDir:      isDir,
		IsSymlink:  isSymlink,
		IsHidden:   strings.HasPrefix(name, "."),
	}

	if !isDir && info.Size() > 0 && info.Size() <= idx.cfg.Index.MaxContentBytes {
		if sample, ok := idx.readSample(path); ok {
			if isLikelyText(sample) {
				rec.ContentTokens = tokenize(string(sample), idx.cfg.Index.Stemming)
			}
			rec.ContentDigest = fastDigest(sample)
		}
	}
	rec.MimeType = mimeFromExtension(ext)

	return rec
}

func (idx *Indexer) readSample(path string) ([]byte, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()
	buf := make([]byte, sampleWindow)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return nil, false
	}
	return buf[:n], true
}
