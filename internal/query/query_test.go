package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/filedex/internal/types"
)

func TestParsePatternAndKeys(t *testing.T) {
	q, err := Parse("ext:go,rs limit:10 mode:fuzzy foo bar")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rs"}, q.Extensions)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, types.ModeFuzzy, q.Mode)
	assert.Equal(t, "foo bar", q.Pattern)
}

func TestParseUnknownKeyIsError(t *testing.T) {
	_, err := Parse("bogus:value foo")
	require.Error(t, err)
}

func TestParseSizeForms(t *testing.T) {
	q, err := Parse("size:<100")
	require.NoError(t, err)
	require.NotNil(t, q.SizeMax)
	assert.Equal(t, int64(100), *q.SizeMax)

	q, err = Parse("size:10..20")
	require.NoError(t, err)
	require.NotNil(t, q.SizeMin)
	require.NotNil(t, q.SizeMax)
	assert.Equal(t, int64(10), *q.SizeMin)
	assert.Equal(t, int64(20), *q.SizeMax)
}

func TestParseDefaults(t *testing.T) {
	q, err := Parse("readme")
	require.NoError(t, err)
	assert.Equal(t, types.ModeGlob, q.Mode)
	assert.Equal(t, types.ScopeName, q.Scope)
	assert.Equal(t, 1000, q.Limit)
}

func TestParseScopeNameAndPath(t *testing.T) {
	q, err := Parse("scope:name foo")
	require.NoError(t, err)
	assert.Equal(t, types.ScopeName, q.Scope)

	q, err = Parse("scope:path foo")
	require.NoError(t, err)
	assert.Equal(t, types.ScopePath, q.Scope)
}

func TestParseSizeUnitSuffixes(t *testing.T) {
	q, err := Parse("size:>1KB")
	require.NoError(t, err)
	require.NotNil(t, q.SizeMin)
	assert.Equal(t, int64(1024), *q.SizeMin)

	q, err = Parse("size:1MB")
	require.NoError(t, err)
	require.NotNil(t, q.SizeMin)
	assert.Equal(t, int64(1<<20), *q.SizeMin)
}

func TestParseModifiedRelativeKeywords(t *testing.T) {
	q, err := Parse("modified:today")
	require.NoError(t, err)
	require.NotNil(t, q.ModifiedAfter)
	require.NotNil(t, q.ModifiedBefore)
	assert.True(t, q.ModifiedAfter.Before(*q.ModifiedBefore))

	q, err = Parse("modified:yesterday")
	require.NoError(t, err)
	require.NotNil(t, q.ModifiedAfter)

	q, err = Parse("modified:3days")
	require.NoError(t, err)
	require.NotNil(t, q.ModifiedAfter)
}

// P4: a query's fingerprint is deterministic regardless of token order.
func TestFingerprintIsOrderIndependent(t *testing.T) {
	a, err := Parse("ext:go,rs mode:fuzzy needle")
	require.NoError(t, err)
	b, err := Parse("mode:fuzzy ext:rs,go needle")
	require.NoError(t, err)

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprintDiffersOnPattern(t *testing.T) {
	a, _ := Parse("needle")
	b, _ := Parse("haystack")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
