package index

import (
	"context"
	"os"
	"path/filepath"

	"github.com/standardbeagle/filedex/internal/config"
	"github.com/standardbeagle/filedex/internal/types"
)

// Reconcile performs the incremental add/update/remove diff between
// the store's existing records under root and the current filesystem
// state, grounded directly on original_source's
// IncrementalIndexer::update / needs_update (P6: a reconcile after a
// rename converges to the same record count as a fresh Walk).
func (idx *Indexer) Reconcile(ctx context.Context, root string) (types.ReconcileStats, error) {
	root = filepath.Clean(root)
	var stats types.ReconcileStats

	existingPaths, err := idx.store.AllPaths(root)
	if err != nil {
		return stats, err
	}
	existing := make(map[string]bool, len(existingPaths))
	for _, p := range existingPaths {
		existing[p] = true
	}

	excl := config.NewExclusion(root, idx.cfg.Index.Exclude)
	current := make(map[string]bool)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil // the root itself is never indexed, matching Walk
		}
		if d.IsDir() {
			excl.LoadGitignore(path)
		}
		if excl.Excluded(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		current[path] = true
		if existing[path] {
			if idx.needsUpdate(ctx, path) {
				if rec, ok := idx.reindexOne(path, root); ok {
					idx.submit(ctx, rec)
					stats.Updated++
				}
			}
		} else {
			if rec, ok := idx.reindexOne(path, root); ok {
				idx.submit(ctx, rec)
				stats.Added++
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	for p := range existing {
		if !current[p] {
			if _, derr := idx.store.DeleteByPrefix(ctx, p); derr == nil {
				stats.Removed++
			}
		}
	}

	idx.flushBatch(ctx)
	return stats, nil
}

func (idx *Indexer) needsUpdate(ctx context.Context, path string) bool {
	existing, ok, err := idx.store.FindByPath(ctx, path)
	if err != nil || !ok {
		return true
	}
	info, err := os.Lstat(path)
	if err != nil {
		return true
	}
	// the store keeps modified_at at whole-second precision
	return info.ModTime().Unix() != existing.ModifiedAt.Unix() || info.Size() != existing.Size
}

func (idx *Indexer) reindexOne(path, root string) (types.FileRecord, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return types.FileRecord{}, false
	}
	isSymlink := info.Mode()&os.ModeSymlink != 0
	isDir := info.IsDir()
	if isSymlink {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return types.FileRecord{}, false
		}
		rinfo, err := os.Stat(resolved)
		if err != nil {
			return types.FileRecord{}, false
		}
		info = rinfo
		isDir = rinfo.IsDir()
	}
	return idx.buildRecord(path, root, info, isDir, isSymlink), true
}

// UpdateFile reconciles a single path: if it no longer exists it is
// deleted from the store; otherwise it is re-extracted and upserted.
// Grounded on original_source's IncrementalIndexer::update_file and
// the watcher's per-path dispatch (synchronizer.rs).
func (idx *Indexer) UpdateFile(ctx context.Context, root, path string) error {
	if _, err := os.Lstat(path); err != nil {
		_, derr := idx.store.DeleteByPrefix(ctx, path)
		idx.cache.Invalidate()
		return derr
	}
	rec, ok := idx.reindexOne(path, root)
	if !ok {
		return nil
	}
	idx.submit(ctx, rec)
	idx.flushBatch(ctx)
	return nil
}

// VerifyIndex cross-checks every indexed record under root against
// the live filesystem, grounded on
// IncrementalIndexer::verify_index/VerificationStats.
func (idx *Indexer) VerifyIndex(ctx context.Context, root string) (types.VerifyStats, error) {
	root = filepath.Clean(root)
	var stats types.VerifyStats

	paths, err := idx.store.AllPaths(root)
	if err != nil {
		return stats, err
	}
	stats.TotalIndexed = int64(len(paths))

	for _, p := range paths {
		rec, ok, err := idx.store.FindByPath(ctx, p)
		if err != nil || !ok {
			continue
		}
		info, err := os.Lstat(p)
		if err != nil {
			stats.Missing++
			continue
		}
		if info.ModTime().Unix() != rec.ModifiedAt.Unix() || info.Size() != rec.Size {
			stats.Outdated++
			continue
		}
		stats.Valid++
	}
	return stats, nil
}
