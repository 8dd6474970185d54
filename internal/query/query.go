// Package query parses the filedex query grammar into a canonical
// types.Query and derives the stable fingerprint cache.Cache keys on,
// grounded on original_source's QueryParser with the deliberate
// deviation that an unrecognized key is a parse error.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/filedex/internal/errs"
	"github.com/standardbeagle/filedex/internal/types"
)

var recognizedKeys = map[string]bool{
	"ext": true, "size": true, "modified": true, "mode": true,
	"scope": true, "limit": true, "boost_ext": true, "boost_size": true,
}

// Parse turns free-form query text into a types.Query, applying
// spec.md's §6.2 grammar: whitespace-separated key:value tokens plus
// a free-text pattern; an unrecognized key is a QueryParse error.
func Parse(text string) (types.Query, error) {
	q := types.Query{Mode: types.ModeGlob, Scope: types.ScopeName, Limit: 1000}
	var patternParts []string

	for _, tok := range strings.Fields(text) {
		key, value, ok := strings.Cut(tok, ":")
		if !ok {
			patternParts = append(patternParts, tok)
			continue
		}
		key = strings.ToLower(key)
		if !recognizedKeys[key] {
			return q, errs.New(errs.KindQueryParse, fmt.Sprintf("unrecognized query key %q", key), nil)
		}
		if err := applyKey(&q, key, value); err != nil {
			return q, err
		}
	}

	q.Pattern = strings.Join(patternParts, " ")
	return q, nil
}

func applyKey(q *types.Query, key, value string) error {
	switch key {
	case "ext":
		for _, e := range strings.Split(value, ",") {
			e = strings.TrimPrefix(strings.TrimSpace(e), ".")
			if e != "" {
				q.Extensions = append(q.Extensions, e)
			}
		}
	case "size":
		return parseSize(q, value)
	case "modified":
		return parseModified(q, value)
	case "mode":
		switch strings.ToLower(value) {
		case "exact":
			q.Mode = types.ModeExact
		case "ci", "case-insensitive":
			q.Mode = types.ModeCaseInsensitive
		case "fuzzy":
			q.Mode = types.ModeFuzzy
		case "regex":
			q.Mode = types.ModeRegex
		case "glob":
			q.Mode = types.ModeGlob
		default:
			return errs.New(errs.KindQueryParse, fmt.Sprintf("unrecognized mode %q", value), nil)
		}
	case "scope":
		switch strings.ToLower(value) {
		case "name":
			q.Scope = types.ScopeName
		case "path":
			q.Scope = types.ScopePath
		case "content":
			q.Scope = types.ScopeContent
		case "all":
			q.Scope = types.ScopeAll
		default:
			return errs.New(errs.KindQueryParse, fmt.Sprintf("unrecognized scope %q", value), nil)
		}
	case "limit":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid limit %q", value), err)
		}
		q.Limit = n
	case "boost_ext":
		for _, e := range strings.Split(value, ",") {
			e = strings.TrimPrefix(strings.TrimSpace(e), ".")
			if e != "" {
				q.BoostExtensions = append(q.BoostExtensions, e)
			}
		}
	case "boost_size":
		asc := strings.EqualFold(value, "asc")
		desc := strings.EqualFold(value, "desc")
		if !asc && !desc {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid boost_size %q", value), nil)
		}
		q.BoostSizeAsc = &asc
	}
	return nil
}

// sizeUnits scales a SIZE mantissa per spec.md §6.2's
// INT ("B"|"KB"|"MB"|"GB")? grammar, grounded on original_source's
// filters/size.rs parse_size.
var sizeUnits = map[string]int64{
	"B": 1, "KB": 1 << 10, "MB": 1 << 20, "GB": 1 << 30,
}

// parseSizeValue parses one SIZE token, scaling by its unit suffix.
func parseSizeValue(s string) (int64, error) {
	upper := strings.ToUpper(s)
	for _, suffix := range []string{"KB", "MB", "GB", "B"} {
		if strings.HasSuffix(upper, suffix) {
			mantissa := strings.TrimSpace(s[:len(s)-len(suffix)])
			n, err := strconv.ParseInt(mantissa, 10, 64)
			if err != nil {
				return 0, err
			}
			return n * sizeUnits[suffix], nil
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

// parseSize accepts "N", "<N", ">N", or "N..M", each a SIZE token
// optionally suffixed with B/KB/MB/GB.
func parseSize(q *types.Query, value string) error {
	switch {
	case strings.HasPrefix(value, "<"):
		n, err := parseSizeValue(value[1:])
		if err != nil {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid size %q", value), err)
		}
		q.SizeMax = &n
	case strings.HasPrefix(value, ">"):
		n, err := parseSizeValue(value[1:])
		if err != nil {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid size %q", value), err)
		}
		q.SizeMin = &n
	case strings.Contains(value, ".."):
		parts := strings.SplitN(value, "..", 2)
		if lo, err := parseSizeValue(parts[0]); err == nil {
			q.SizeMin = &lo
		}
		if len(parts) > 1 {
			if hi, err := parseSizeValue(parts[1]); err == nil {
				q.SizeMax = &hi
			}
		}
	default:
		n, err := parseSizeValue(value)
		if err != nil {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid size %q", value), err)
		}
		q.SizeMin = &n
		q.SizeMax = &n
	}
	return nil
}

// relativeUnitSuffixes maps the INT-prefixed unit suffixes from spec.md
// §6.2's modified grammar to the number of days they subtract from now,
// grounded on original_source's filters/date.rs parse_relative_date.
var relativeUnitSuffixes = []struct {
	suffix     string
	daysPerUnit int
}{
	{"days", 1}, {"day", 1}, {"week", 7}, {"month", 30},
}

// parseRelativeKeyword resolves "today", "yesterday" or an
// INT("days"|"week"|"month") token to the day it names. ok is false if
// value matches none of these forms.
func parseRelativeKeyword(value string) (day time.Time, ok bool) {
	now := time.Now()
	switch strings.ToLower(value) {
	case "today":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}
	for _, u := range relativeUnitSuffixes {
		if n, found := strings.CutSuffix(strings.ToLower(value), u.suffix); found {
			count, err := strconv.Atoi(strings.TrimSpace(n))
			if err != nil {
				continue
			}
			return now.AddDate(0, 0, -count*u.daysPerUnit), true
		}
	}
	return time.Time{}, false
}

// parseAbsoluteDate parses value as spec.md's DATE terminal: RFC3339 or
// a bare "2006-01-02" calendar date. This form has no original_source
// counterpart (it never parses absolute dates); it exists only to
// satisfy the grammar's bare-DATE production.
func parseAbsoluteDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// dayRange returns the start and end instants of day's calendar day in
// its own location, grounded on original_source's apply_date_filter
// DateFilter::On.
func dayRange(day time.Time) (start, end time.Time) {
	y, m, d := day.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	end = time.Date(y, m, d, 23, 59, 59, 999999999, day.Location())
	return start, end
}

// parseModified accepts spec.md §6.2's modified grammar: "today",
// "yesterday", an INT("days"|"week"|"month") relative form, an
// optionally ">"/"<" prefixed DATE, or (as a supplement) an "A..B"
// RFC3339 range.
func parseModified(q *types.Query, value string) error {
	switch {
	case strings.HasPrefix(value, "<"):
		rest := value[1:]
		if day, ok := parseRelativeKeyword(rest); ok {
			q.ModifiedAfter = &day
			return nil
		}
		t, err := parseAbsoluteDate(rest)
		if err != nil {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid modified %q", value), err)
		}
		q.ModifiedAfter = &t
	case strings.HasPrefix(value, ">"):
		rest := value[1:]
		if day, ok := parseRelativeKeyword(rest); ok {
			q.ModifiedBefore = &day
			return nil
		}
		t, err := parseAbsoluteDate(rest)
		if err != nil {
			return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid modified %q", value), err)
		}
		q.ModifiedBefore = &t
	case strings.Contains(value, ".."):
		parts := strings.SplitN(value, "..", 2)
		if t, err := time.Parse(time.RFC3339, parts[0]); err == nil {
			q.ModifiedAfter = &t
		}
		if len(parts) > 1 {
			if t, err := time.Parse(time.RFC3339, parts[1]); err == nil {
				q.ModifiedBefore = &t
			}
		}
	default:
		var day time.Time
		if d, ok := parseRelativeKeyword(value); ok {
			day = d
		} else {
			t, err := parseAbsoluteDate(value)
			if err != nil {
				return errs.New(errs.KindQueryParse, fmt.Sprintf("invalid modified %q", value), err)
			}
			day = t
		}
		start, end := dayRange(day)
		q.ModifiedAfter = &start
		q.ModifiedBefore = &end
	}
	return nil
}

// Canonicalize renders a deterministic string for q: sorted
// extensions, normalized mode/scope tokens, so equivalent queries
// written with different token order produce the same fingerprint (P4).
func Canonicalize(q types.Query) string {
	exts := append([]string(nil), q.Extensions...)
	sort.Strings(exts)
	boosts := append([]string(nil), q.BoostExtensions...)
	sort.Strings(boosts)

	var b strings.Builder
	fmt.Fprintf(&b, "pattern=%s;mode=%s;scope=%s;limit=%d;ext=%s;boost_ext=%s;",
		strings.TrimSpace(q.Pattern), q.Mode, q.Scope, q.Limit,
		strings.Join(exts, ","), strings.Join(boosts, ","))
	writeInt64Ptr(&b, "size_min", q.SizeMin)
	writeInt64Ptr(&b, "size_max", q.SizeMax)
	writeTimePtr(&b, "mod_after", q.ModifiedAfter)
	writeTimePtr(&b, "mod_before", q.ModifiedBefore)
	if q.BoostSizeAsc != nil {
		fmt.Fprintf(&b, "boost_size=%v;", *q.BoostSizeAsc)
	}
	return b.String()
}

func writeInt64Ptr(b *strings.Builder, name string, v *int64) {
	if v != nil {
		fmt.Fprintf(b, "%s=%d;", name, *v)
	}
}

func writeTimePtr(b *strings.Builder, name string, v *time.Time) {
	if v != nil {
		fmt.Fprintf(b, "%s=%d;", name, v.Unix())
	}
}

// Fingerprint is the cache key derived from q's canonical form.
func Fingerprint(q types.Query) uint64 {
	return xxhash.Sum64String(Canonicalize(q))
}
