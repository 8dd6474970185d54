// Package match implements the Matcher abstraction over file records:
// exact, case-insensitive, fuzzy, regex and glob pattern matching,
// composed with the structural filters (extension/size/modified) a
// Query carries. Grounded on original_source's Matcher trait family
// and the teacher's go-edlib fuzzy scorer.
package match

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/filedex/internal/errs"
	"github.com/standardbeagle/filedex/internal/types"
)

// Matcher evaluates a FileRecord against a pattern, returning whether
// it matched, a [0,1] match_score, and evidence strings describing
// what matched.
type Matcher interface {
	Match(rec types.FileRecord) (matched bool, score float64, evidence []string)
}

// scopedField is one candidate value a pattern can be tested against,
// carrying the evidence label for whichever field it came from.
type scopedField struct {
	label string
	value string
}

// scopeFields resolves q's scope to the field(s) of rec the pattern
// matches against, grounded on spec.md §4.5: scope=Name/Path compare
// against the respective field, scope=Content compares against the
// joined content_tokens (records with no tokens are skipped), and
// scope=All tries every field that has a value.
func scopeFields(scope types.SearchScope, rec types.FileRecord) []scopedField {
	switch scope {
	case types.ScopeName:
		return []scopedField{{"name", rec.Name}}
	case types.ScopePath:
		return []scopedField{{"path", rec.Path}}
	case types.ScopeContent:
		if len(rec.ContentTokens) == 0 {
			return nil
		}
		return []scopedField{{"content", strings.Join(rec.ContentTokens, " ")}}
	default: // types.ScopeAll
		fields := []scopedField{{"name", rec.Name}, {"path", rec.Path}}
		if len(rec.ContentTokens) > 0 {
			fields = append(fields, scopedField{"content", strings.Join(rec.ContentTokens, " ")})
		}
		return fields
	}
}

type exactMatcher struct {
	pattern string
	scope   types.SearchScope
}

func (m exactMatcher) Match(rec types.FileRecord) (bool, float64, []string) {
	for _, f := range scopeFields(m.scope, rec) {
		if f.value == m.pattern {
			return true, 1.0, []string{f.label + ":exact"}
		}
	}
	return false, 0, nil
}

type ciMatcher struct {
	pattern string
	scope   types.SearchScope
}

func (m ciMatcher) Match(rec types.FileRecord) (bool, float64, []string) {
	pat := strings.ToLower(m.pattern)
	for _, f := range scopeFields(m.scope, rec) {
		value := strings.ToLower(f.value)
		switch {
		case value == pat:
			return true, 1.0, []string{f.label + ":exact-ci"}
		case strings.HasPrefix(value, pat):
			return true, 0.9, []string{f.label + ":prefix"}
		case strings.Contains(value, pat):
			return true, 0.75, []string{f.label + ":contains"}
		}
	}
	return false, 0, nil
}

type fuzzyMatcher struct {
	pattern   string
	threshold float64
	scope     types.SearchScope
}

// Match scores the scope-selected field(s) against the pattern using a
// blend of Jaro-Winkler and Levenshtein similarity via go-edlib,
// matching the teacher's FuzzyMatcher shape while normalizing into
// [0,1] the way original_source's score_normalized does.
func (m fuzzyMatcher) Match(rec types.FileRecord) (bool, float64, []string) {
	pat := strings.ToLower(m.pattern)
	var best float64
	var bestLabel string
	for _, f := range scopeFields(m.scope, rec) {
		value := strings.ToLower(f.value)
		jw, jwErr := edlib.StringsSimilarity(value, pat, edlib.JaroWinkler)
		lev, levErr := edlib.StringsSimilarity(value, pat, edlib.Levenshtein)
		score := float64(jw)
		if jwErr == nil && levErr == nil {
			score = (float64(jw) + float64(lev)) / 2.0
		}
		if score > best {
			best = score
			bestLabel = f.label
		}
	}
	if best < m.threshold {
		return false, 0, nil
	}
	return true, best, []string{bestLabel + ":fuzzy"}
}

type regexMatcher struct {
	re    *regexp.Regexp
	scope types.SearchScope
}

// NewRegexMatcher compiles pattern once; compilation failures surface
// as QueryCompile errors rather than at match time.
func NewRegexMatcher(pattern string, scope types.SearchScope) (Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.New(errs.KindQueryCompile, "compiling regex pattern", err)
	}
	return regexMatcher{re: re, scope: scope}, nil
}

func (m regexMatcher) Match(rec types.FileRecord) (bool, float64, []string) {
	for _, f := range scopeFields(m.scope, rec) {
		if m.re.MatchString(f.value) {
			return true, 1.0, []string{f.label + ":regex"}
		}
	}
	return false, 0, nil
}

type globMatcher struct {
	pattern string
	scope   types.SearchScope
}

func NewGlobMatcher(pattern string, scope types.SearchScope) Matcher {
	return globMatcher{pattern: pattern, scope: scope}
}

func (m globMatcher) Match(rec types.FileRecord) (bool, float64, []string) {
	for _, f := range scopeFields(m.scope, rec) {
		value := f.value
		if f.label == "path" {
			value = filepath.ToSlash(value)
		}
		if ok, _ := doublestar.Match(m.pattern, value); ok {
			return true, 1.0, []string{f.label + ":glob"}
		}
	}
	return false, 0, nil
}

// New builds the pattern Matcher named by mode, routing matches
// against the field(s) scope selects, and returning a QueryCompile
// error for modes requiring compilation (regex) that fail.
func New(mode types.MatchMode, pattern string, fuzzyThreshold float64, scope types.SearchScope) (Matcher, error) {
	switch mode {
	case types.ModeExact:
		return exactMatcher{pattern: pattern, scope: scope}, nil
	case types.ModeFuzzy:
		return fuzzyMatcher{pattern: pattern, threshold: fuzzyThreshold, scope: scope}, nil
	case types.ModeRegex:
		return NewRegexMatcher(pattern, scope)
	case types.ModeGlob:
		return NewGlobMatcher(pattern, scope), nil
	default:
		return ciMatcher{pattern: pattern, scope: scope}, nil
	}
}

// Structural reports whether rec satisfies q's non-pattern filters
// (extension/size/modified), independent of the pattern Matcher.
func Structural(q types.Query, rec types.FileRecord) bool {
	if len(q.Extensions) > 0 {
		found := false
		for _, e := range q.Extensions {
			if strings.EqualFold(e, rec.Extension) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.SizeMin != nil && rec.Size < *q.SizeMin {
		return false
	}
	if q.SizeMax != nil && rec.Size > *q.SizeMax {
		return false
	}
	if q.ModifiedAfter != nil && rec.ModifiedAt.Before(*q.ModifiedAfter) {
		return false
	}
	if q.ModifiedBefore != nil && rec.ModifiedAt.After(*q.ModifiedBefore) {
		return false
	}
	if q.Scope == types.ScopeContent && len(rec.ContentTokens) == 0 {
		return false
	}
	return true
}

// Composite combines Structural filtering with the pattern matcher,
// grounded on original_source's CompositeMatcher.
type Composite struct {
	Query   types.Query
	Pattern Matcher
}

func (c Composite) Match(rec types.FileRecord) (bool, float64, []string) {
	if !Structural(c.Query, rec) {
		return false, 0, nil
	}
	if c.Pattern == nil || c.Query.Pattern == "" {
		return true, 0.5, nil
	}
	return c.Pattern.Match(rec)
}
