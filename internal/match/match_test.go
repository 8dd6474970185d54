package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/filedex/internal/types"
)

func TestExactMatcher(t *testing.T) {
	m, err := New(types.ModeExact, "main.go", 0.7, types.ScopeName)
	require.NoError(t, err)
	matched, score, _ := m.Match(types.FileRecord{Name: "main.go"})
	assert.True(t, matched)
	assert.Equal(t, 1.0, score)

	matched, _, _ = m.Match(types.FileRecord{Name: "Main.go"})
	assert.False(t, matched)
}

func TestCaseInsensitiveMatcher(t *testing.T) {
	m, err := New(types.ModeCaseInsensitive, "main", 0.7, types.ScopeName)
	require.NoError(t, err)
	matched, _, _ := m.Match(types.FileRecord{Name: "Main.go"})
	assert.True(t, matched)
}

func TestGlobMatcher(t *testing.T) {
	m, err := New(types.ModeGlob, "*.go", 0.7, types.ScopeName)
	require.NoError(t, err)
	matched, _, _ := m.Match(types.FileRecord{Name: "main.go"})
	assert.True(t, matched)
	matched, _, _ = m.Match(types.FileRecord{Name: "main.txt"})
	assert.False(t, matched)
}

func TestRegexMatcherCompileError(t *testing.T) {
	_, err := NewRegexMatcher("(unclosed", types.ScopeName)
	assert.Error(t, err)
}

func TestStructuralFiltersBySizeAndExtension(t *testing.T) {
	min := int64(10)
	q := types.Query{Extensions: []string{"go"}, SizeMin: &min}
	assert.True(t, Structural(q, types.FileRecord{Extension: "go", Size: 20}))
	assert.False(t, Structural(q, types.FileRecord{Extension: "txt", Size: 20}))
	assert.False(t, Structural(q, types.FileRecord{Extension: "go", Size: 5}))
}

func TestScopeContentMatchesTokensAndSkipsEmpty(t *testing.T) {
	m, err := New(types.ModeCaseInsensitive, "needle", 0.7, types.ScopeContent)
	require.NoError(t, err)

	matched, _, _ := m.Match(types.FileRecord{Name: "a.txt", ContentTokens: []string{"haystack", "needle"}})
	assert.True(t, matched)

	matched, _, _ = m.Match(types.FileRecord{Name: "needle.txt"})
	assert.False(t, matched, "no content_tokens means scope=content never matches on the name")
}

func TestScopePathMatchesDirectoryComponents(t *testing.T) {
	m, err := New(types.ModeCaseInsensitive, "proj", 0.7, types.ScopePath)
	require.NoError(t, err)

	matched, _, _ := m.Match(types.FileRecord{Name: "main.go", Path: "/home/proj/main.go"})
	assert.True(t, matched)
}

func TestCompositeRequiresBothStructuralAndPattern(t *testing.T) {
	m, err := New(types.ModeExact, "main.go", 0.7, types.ScopeName)
	require.NoError(t, err)
	c := Composite{Query: types.Query{Extensions: []string{"go"}}, Pattern: m}

	matched, _, _ := c.Match(types.FileRecord{Name: "main.go", Extension: "go"})
	assert.True(t, matched)

	matched, _, _ = c.Match(types.FileRecord{Name: "main.go", Extension: "txt"})
	assert.False(t, matched)
}
