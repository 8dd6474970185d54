// Package types holds the data model shared across filedex's
// store, search, index and watch packages.
package types

import "time"

// MatchMode selects how a Matcher compares a pattern against the
// field(s) the query's SearchScope selects.
type MatchMode string

const (
	ModeExact           MatchMode = "exact"
	ModeCaseInsensitive  MatchMode = "ci"
	ModeFuzzy            MatchMode = "fuzzy"
	ModeRegex            MatchMode = "regex"
	ModeGlob             MatchMode = "glob"
)

// SearchScope selects which field of a FileRecord a query's pattern is
// matched against.
type SearchScope string

const (
	ScopeName    SearchScope = "name"
	ScopePath    SearchScope = "path"
	ScopeContent SearchScope = "content"
	ScopeAll     SearchScope = "all"
)

// FileRecord is the persisted metadata for one filesystem path.
//
// I1: Path is always absolute and filepath.Clean-ed.
// I2: ParentPath is filepath.Dir(Path), except for filesystem roots.
type FileRecord struct {
	ID            int64
	Path          string
	ParentPath    string
	Name          string
	Extension     string
	Size          int64
	Mode          uint32
	ModifiedAt    time.Time
	IndexedAt     time.Time
	AccessedAt    *time.Time
	AccessCount   int64
	IsDir         bool
	IsSymlink     bool
	IsHidden      bool
	ContentDigest string // hex xxhash of a capped byte window; empty if not sampled
	ContentTokens []string
	MimeType      string
	LastVerified  time.Time
}

// Query is the canonical, in-memory representation of a parsed search
// request. Canonicalize/Fingerprint give it a stable cache identity.
type Query struct {
	Pattern         string
	Extensions      []string
	SizeMin         *int64
	SizeMax         *int64
	ModifiedAfter   *time.Time
	ModifiedBefore  *time.Time
	Mode            MatchMode
	Scope           SearchScope
	Limit           int
	BoostExtensions []string
	BoostSizeAsc    *bool
}

// ContentPreview is the shape of SearchResult.Preview. The searcher
// does not populate it, so Preview is always nil.
type ContentPreview struct {
	Snippet   string
	LineCount int
	WordCount int
}

// SearchResult pairs a FileRecord with its score and match evidence.
type SearchResult struct {
	Record   FileRecord
	Score    float64
	MatchedOn []string
	Preview  *ContentPreview
}

// SearchResponse is the Searcher's top-level return value.
type SearchResponse struct {
	Results []SearchResult
	Partial bool
}

// StoreStats summarizes Store content, surfaced through Engine.Stats.
type StoreStats struct {
	TotalFiles  int64
	TotalDirs   int64
	TotalBytes  int64
	SchemaVersion int
}

// WalkStats summarizes one Indexer.Walk invocation.
type WalkStats struct {
	FilesIndexed int64
	DirsIndexed  int64
	Errors       int64
	Skipped      int64
}

// ReconcileStats summarizes one Indexer.Reconcile invocation.
type ReconcileStats struct {
	Added   int64
	Updated int64
	Removed int64
}

// Total returns the sum of added, updated and removed records.
func (s ReconcileStats) Total() int64 { return s.Added + s.Updated + s.Removed }

// VerifyStats summarizes one Indexer.VerifyIndex invocation.
type VerifyStats struct {
	TotalIndexed int64
	Valid        int64
	Outdated     int64
	Missing      int64
}

// HealthPercentage returns the fraction of indexed records still valid.
func (s VerifyStats) HealthPercentage() float64 {
	if s.TotalIndexed == 0 {
		return 100.0
	}
	return (float64(s.Valid) / float64(s.TotalIndexed)) * 100.0
}

// QueryHistoryEntry is one row of the persisted search history.
type QueryHistoryEntry struct {
	Fingerprint uint64
	Pattern     string
	ResultCount int
	ExecutedAt  time.Time
}

// EngineStats is the aggregate status Engine.Stats returns.
type EngineStats struct {
	Store     StoreStats
	BloomSize uint64
	CacheSize int
}
