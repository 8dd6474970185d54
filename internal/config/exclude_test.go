package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludedByConfiguredPattern(t *testing.T) {
	root := t.TempDir()
	e := NewExclusion(root, []string{"*.tmp", "node_modules"})

	assert.True(t, e.Excluded(filepath.Join(root, "a.tmp"), false))
	assert.True(t, e.Excluded(filepath.Join(root, "node_modules"), true))
	assert.False(t, e.Excluded(filepath.Join(root, "a.go"), false))
}

func TestExcludedByGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n*.log\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "build"), 0o755))

	e := NewExclusion(root, nil)
	e.LoadGitignore(root)

	assert.True(t, e.Excluded(filepath.Join(root, "build"), true))
	assert.True(t, e.Excluded(filepath.Join(root, "debug.log"), false))
	assert.False(t, e.Excluded(filepath.Join(root, "main.go"), false))
}

func TestGitignoreNegationOverridesPreviousMatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n!keep.log\n"), 0o644))

	e := NewExclusion(root, nil)
	e.LoadGitignore(root)

	assert.True(t, e.Excluded(filepath.Join(root, "debug.log"), false))
	assert.False(t, e.Excluded(filepath.Join(root, "keep.log"), false))
}
