// Package config loads filedex's nested configuration from a KDL
// file, following the global+project merge pattern of the config
// loader this module's indexing and watch packages grew out of.
package config

import (
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"

	"github.com/standardbeagle/filedex/internal/errs"
)

type ProjectConfig struct {
	Root string
}

type IndexConfig struct {
	Workers         int
	MaxContentBytes int64
	Stemming        bool
	Exclude         []string
}

type StoreConfig struct {
	Path                string
	VacuumIntervalMinutes int
}

type BloomConfig struct {
	Capacity  uint64
	ErrorRate float64
}

type SearchConfig struct {
	CacheSize      int
	FuzzyThreshold float64
	DefaultLimit   int
}

type WatchConfig struct {
	DebounceMs int
}

// Config is the fully merged configuration for one Engine instance.
type Config struct {
	Project ProjectConfig
	Index   IndexConfig
	Store   StoreConfig
	Bloom   BloomConfig
	Search  SearchConfig
	Watch   WatchConfig
}

// Default returns the built-in configuration defaults, matching the
// values spec.md's Config options section documents.
func Default() Config {
	return Config{
		Index: IndexConfig{
			Workers:         8,
			MaxContentBytes: 1 << 20, // 1 MiB
			Stemming:        false,
			Exclude:         DefaultExcludePatterns(),
		},
		Store: StoreConfig{
			Path:                  ".filedex/index.db",
			VacuumIntervalMinutes: 60,
		},
		Bloom: BloomConfig{
			Capacity:  10_000_000,
			ErrorRate: 0.0001,
		},
		Search: SearchConfig{
			CacheSize:      256,
			FuzzyThreshold: 0.7,
			DefaultLimit:   100,
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
	}
}

// DefaultExcludePatterns mirrors the original indexer's built-in
// exclusion list.
func DefaultExcludePatterns() []string {
	return []string{
		".git", "node_modules", "target", "dist", "build",
		".filedex", "__pycache__", ".venv", "vendor",
	}
}

// Load reads root/.filedex/config.kdl if present, merging it over
// Default(). A missing file is not an error.
func Load(root string) (Config, error) {
	cfg := Default()
	cfg.Project.Root = root

	path := filepath.Join(root, ".filedex", "config.kdl")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errs.WithPath(errs.KindStoreIo, path, "reading config", err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(data)))
	if err != nil {
		return cfg, errs.WithPath(errs.KindStoreIo, path, "parsing KDL config", err)
	}

	mergeKDL(&cfg, doc)
	return cfg, nil
}
