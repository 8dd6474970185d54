package config

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// gitignorePattern is one compiled line of a .gitignore file, adapted
// from the teacher's gitignore parser: each pattern remembers whether
// it is a negation, directory-only, or anchored to the file it came
// from.
type gitignorePattern struct {
	raw       string
	negate    bool
	dirOnly   bool
	anchored  bool
	base      string // directory the .gitignore file lives in
}

func parseGitignoreLine(base, line string) (gitignorePattern, bool) {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return gitignorePattern{}, false
	}
	p := gitignorePattern{base: base}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	p.raw = line
	return p, true
}

func (p gitignorePattern) matches(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	pattern := p.raw
	if !p.anchored {
		pattern = "**/" + pattern
	}
	ok, _ := doublestar.Match(pattern, relPath)
	if !ok {
		ok, _ = doublestar.Match(pattern+"/**", relPath)
	}
	return ok
}

// Exclusion is the union of configured glob patterns, discovered
// .gitignore files, and the built-in default pattern set. It matches
// spec.md's requirement that exclusion is a union of these sources,
// grounded on original_source's ExclusionFilter and adapted from the
// teacher's GitignoreParser.
type Exclusion struct {
	root     string
	patterns []string // plain glob patterns (config + defaults), relative-to-root globs

	mu       sync.RWMutex
	gitignore map[string][]gitignorePattern // dir -> patterns declared in dir/.gitignore
}

func NewExclusion(root string, configured []string) *Exclusion {
	return &Exclusion{
		root:      root,
		patterns:  configured,
		gitignore: make(map[string][]gitignorePattern),
	}
}

// LoadGitignore reads dir/.gitignore if present and caches its
// compiled patterns. Safe to call repeatedly as the walk descends.
func (e *Exclusion) LoadGitignore(dir string) {
	path := filepath.Join(dir, ".gitignore")
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	var patterns []gitignorePattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if p, ok := parseGitignoreLine(dir, scanner.Text()); ok {
			patterns = append(patterns, p)
		}
	}

	e.mu.Lock()
	e.gitignore[dir] = patterns
	e.mu.Unlock()
}

// Excluded reports whether path (under root) should be skipped.
func (e *Exclusion) Excluded(path string, isDir bool) bool {
	rel, err := filepath.Rel(e.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	name := filepath.Base(path)

	for _, pat := range e.patterns {
		if ok, _ := doublestar.Match(pat, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}

	excluded := false
	e.mu.RLock()
	dirs := make([]string, 0, len(e.gitignore))
	for dir := range e.gitignore {
		dirs = append(dirs, dir)
	}
	// shallower .gitignore files are applied first so a more specific,
	// deeper .gitignore can override them, matching real gitignore
	// precedence.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) < len(dirs[j]) })
	for _, dir := range dirs {
		dirRel, err := filepath.Rel(dir, path)
		if err != nil || strings.HasPrefix(dirRel, "..") {
			continue
		}
		dirRel = filepath.ToSlash(dirRel)
		for _, p := range e.gitignore[dir] {
			if p.matches(dirRel, isDir) {
				excluded = !p.negate
			}
		}
	}
	e.mu.RUnlock()
	return excluded
}
