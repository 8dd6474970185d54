package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/standardbeagle/filedex/internal/bloom"
	"github.com/standardbeagle/filedex/internal/cache"
	"github.com/standardbeagle/filedex/internal/errs"
	"github.com/standardbeagle/filedex/internal/match"
	"github.com/standardbeagle/filedex/internal/query"
	"github.com/standardbeagle/filedex/internal/rank"
	"github.com/standardbeagle/filedex/internal/store"
	"github.com/standardbeagle/filedex/internal/types"
)

// searcher implements spec.md §4.8's Search pipeline: canonicalize →
// fingerprint → cache lookup → on miss, candidate scan → structural +
// pattern match → rank → truncate → cache → record access. Grounded
// on original_source's SearchExecutor::execute.
type searcher struct {
	store  *store.Store
	bloom  *bloom.Filter
	cache  *cache.Cache
	ranker rank.Ranker

	fuzzyThreshold float64
	defaultLimit   int
}

func (s *searcher) search(ctx context.Context, root string, q types.Query) (types.SearchResponse, error) {
	if q.Limit <= 0 {
		q.Limit = s.defaultLimit
	}

	fp := query.Fingerprint(q)
	if cached, ok := s.cache.Get(fp); ok {
		return types.SearchResponse{Results: cached}, nil
	}

	if q.Mode == types.ModeExact && filepath.IsAbs(q.Pattern) &&
		(q.Scope == types.ScopePath || q.Scope == types.ScopeAll) {
		// single absolute-path lookup shortcut: a bloom miss means the
		// path is certainly absent (I3) and the candidate scan can be
		// skipped entirely.
		if !s.bloom.MightContain(q.Pattern) {
			return types.SearchResponse{Results: nil}, nil
		}
	}

	candidates, err := s.store.QueryCandidates(ctx, root, q)
	if err != nil {
		if ctx.Err() != nil {
			return types.SearchResponse{Partial: true}, errs.New(errs.KindDeadlineExceeded, "search deadline exceeded", ctx.Err())
		}
		return types.SearchResponse{}, err
	}

	matcher, err := match.New(q.Mode, q.Pattern, s.fuzzyThreshold, q.Scope)
	if err != nil {
		return types.SearchResponse{}, err
	}
	composite := match.Composite{Query: q, Pattern: matcher}

	partial := false
	results := make([]types.SearchResult, 0, len(candidates))
	for _, rec := range candidates {
		select {
		case <-ctx.Done():
			partial = true
		default:
		}
		if partial {
			break
		}
		matched, score, evidence := composite.Match(rec)
		if !matched {
			continue
		}
		results = append(results, types.SearchResult{Record: rec, Score: score, MatchedOn: evidence})
	}

	now := time.Now().Unix()
	results = s.ranker.Rank(results, now)
	if len(q.BoostExtensions) > 0 {
		results = s.ranker.BoostByExtension(results, q.BoostExtensions)
	}
	if q.BoostSizeAsc != nil {
		results = s.ranker.BoostBySize(results, *q.BoostSizeAsc)
	}

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}

	s.cache.Put(fp, results)
	for _, r := range results {
		_ = s.store.RecordAccess(ctx, r.Record.Path, time.Now())
	}
	_ = s.store.RecordSearch(ctx, fp, q.Pattern, len(results), time.Now())

	return types.SearchResponse{Results: results, Partial: partial}, nil
}
