// Package config defines the settings object the indexing core is handed
// by its caller. The core never parses TOML/env/CLI flags itself; callers
// decode whatever on-disk or flag format they use into this struct (or
// into its YAML mirror, e.g. a manifest sidecar) before constructing an
// Index.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/swift-index/core/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config is the complete settings object recognized by the core, grouped
// by the subsystem each sub-config configures.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing" json:"indexing"`
	Watch     WatchConfig     `yaml:"watch" json:"watch"`
	Search    SearchConfig    `yaml:"search" json:"search"`
}

// EmbeddingConfig configures the embedding dimension, fixed at index
// creation and enforced on every subsequent open.
type EmbeddingConfig struct {
	// Dimension is the vector width every embedder call must return.
	Dimension int `yaml:"dimension" json:"dimension"`
}

// DefaultEmbeddingConfig returns the embedding config's defaults.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{Dimension: 384}
}

// IndexingConfig configures the indexing pipeline's concurrency, batching,
// and walk excludes.
type IndexingConfig struct {
	// MaxConcurrentTasks bounds the file-task window during a pass.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks" json:"max_concurrent_tasks"`
	// BatchSize is the embedding batch size.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
	// IdleFlushMS is how long the embedding batcher waits for a partial
	// batch to fill before flushing it anyway.
	IdleFlushMS int `yaml:"idle_flush_ms" json:"idle_flush_ms"`
	// ExcludeGlobs are paths the walker skips, in addition to the
	// built-in .git/.build/DerivedData/node_modules excludes.
	ExcludeGlobs []string `yaml:"exclude_globs" json:"exclude_globs"`
	// Submodules configures git submodule discovery during the walk.
	// Disabled by default: a project with submodules pays the extra
	// .gitmodules parse and per-submodule walk only if it opts in.
	Submodules SubmodulesConfig `yaml:"submodules" json:"submodules"`
}

// SubmodulesConfig mirrors scanner.SubmoduleConfig as the on-disk/config
// surface for git submodule discovery.
type SubmodulesConfig struct {
	// Enabled turns on submodule discovery for the walk.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Recursive also discovers submodules nested inside submodules.
	Recursive bool `yaml:"recursive" json:"recursive"`
	// Include restricts discovery to these submodule paths (empty = all).
	Include []string `yaml:"include" json:"include"`
	// Exclude skips these submodule paths even when Enabled is true.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// DefaultIndexingConfig returns the indexing config's defaults.
func DefaultIndexingConfig() IndexingConfig {
	return IndexingConfig{
		MaxConcurrentTasks: runtime.NumCPU(),
		BatchSize:          32,
		IdleFlushMS:        50,
		ExcludeGlobs: []string{
			"**/.git/**",
			"**/.build/**",
			"**/DerivedData/**",
			"**/node_modules/**",
		},
	}
}

// WatchConfig configures the filesystem watcher's debounce window.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" json:"debounce_ms"`
}

// DefaultWatchConfig returns the watch config's defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{DebounceMS: 500}
}

// SearchConfig configures the retrieval, fusion, and re-ranking defaults.
type SearchConfig struct {
	Limit               int     `yaml:"limit" json:"limit"`
	SemanticWeight      float64 `yaml:"semantic_weight" json:"semantic_weight"`
	RRFConstant         int     `yaml:"rrf_k" json:"rrf_k"`
	RRFAlpha            float64 `yaml:"rrf_alpha" json:"rrf_alpha"`
	OverFetch           int     `yaml:"over_fetch" json:"over_fetch"`
	RareTermThreshold   int     `yaml:"rare_term_threshold" json:"rare_term_threshold"`
	SourceBoost         float64 `yaml:"source_boost" json:"source_boost"`
	PublicBoost         float64 `yaml:"public_boost" json:"public_boost"`
}

// DefaultSearchConfig returns the search config's defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Limit:             20,
		SemanticWeight:    0.7,
		RRFConstant:       60,
		RRFAlpha:          0.7,
		OverFetch:         2,
		RareTermThreshold: 10,
		SourceBoost:       1.1,
		PublicBoost:       1.1,
	}
}

// Default returns a Config populated entirely with defaults.
func Default() *Config {
	return &Config{
		Embedding: DefaultEmbeddingConfig(),
		Indexing:  DefaultIndexingConfig(),
		Watch:     DefaultWatchConfig(),
		Search:    DefaultSearchConfig(),
	}
}

// Validate checks the configuration's ranges, returning a structured
// InvalidArgument error describing the first violation found.
func (c *Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return errors.InvalidArgument(fmt.Sprintf("embedding.dimension must be positive, got %d", c.Embedding.Dimension), nil)
	}
	if c.Indexing.MaxConcurrentTasks <= 0 {
		return errors.InvalidArgument(fmt.Sprintf("indexing.max_concurrent_tasks must be positive, got %d", c.Indexing.MaxConcurrentTasks), nil)
	}
	if c.Indexing.BatchSize <= 0 {
		return errors.InvalidArgument(fmt.Sprintf("indexing.batch_size must be positive, got %d", c.Indexing.BatchSize), nil)
	}
	if c.Indexing.IdleFlushMS < 0 {
		return errors.InvalidArgument(fmt.Sprintf("indexing.idle_flush_ms must be non-negative, got %d", c.Indexing.IdleFlushMS), nil)
	}
	if c.Watch.DebounceMS < 0 {
		return errors.InvalidArgument(fmt.Sprintf("watch.debounce_ms must be non-negative, got %d", c.Watch.DebounceMS), nil)
	}
	if c.Search.Limit <= 0 {
		return errors.InvalidArgument(fmt.Sprintf("search.limit must be positive, got %d", c.Search.Limit), nil)
	}
	if c.Search.SemanticWeight < 0 || c.Search.SemanticWeight > 1 {
		return errors.InvalidArgument(fmt.Sprintf("search.semantic_weight must be between 0 and 1, got %f", c.Search.SemanticWeight), nil)
	}
	if c.Search.RRFConstant <= 0 {
		return errors.InvalidArgument(fmt.Sprintf("search.rrf_k must be positive, got %d", c.Search.RRFConstant), nil)
	}
	if c.Search.RRFAlpha < 0 || c.Search.RRFAlpha > 1 {
		return errors.InvalidArgument(fmt.Sprintf("search.rrf_alpha must be between 0 and 1, got %f", c.Search.RRFAlpha), nil)
	}
	if c.Search.OverFetch <= 0 {
		return errors.InvalidArgument(fmt.Sprintf("search.over_fetch must be positive, got %d", c.Search.OverFetch), nil)
	}
	if c.Search.RareTermThreshold < 0 {
		return errors.InvalidArgument(fmt.Sprintf("search.rare_term_threshold must be non-negative, got %d", c.Search.RareTermThreshold), nil)
	}
	return nil
}

// LoadYAML reads and validates a Config from a YAML file, for callers that
// hand the core a file path rather than a pre-built struct. Fields absent
// from the file keep their Default() values.
func LoadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.StoreIO(fmt.Sprintf("failed to read config file %s", path), err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.InvalidArgument(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteYAML writes c to path, used for manifest.json's human-readable
// config sidecar and by tests asserting round-trip fidelity.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Internal("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.StoreIO(fmt.Sprintf("failed to write config file %s", path), err)
	}
	return nil
}
