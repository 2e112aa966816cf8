package driven

import (
	"context"
	"time"
)

// Config is the validated application configuration.
type Config struct {
	// DataDir is the root directory for index artifacts and caches.
	DataDir string `toml:"data_dir"`

	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Tasks     TaskConfig      `toml:"tasks"`
	Source    SourceConfig    `toml:"source"`
}

// EmbeddingConfig selects and tunes the embedding backend.
type EmbeddingConfig struct {
	Provider string        `toml:"provider"`
	Model    string        `toml:"model"`
	Endpoint string        `toml:"endpoint"`
	APIKey   string        `toml:"api_key"`
	Timeout  time.Duration `toml:"timeout"`
}

// LLMConfig selects and tunes the completion backend.
type LLMConfig struct {
	Provider    string        `toml:"provider"`
	Model       string        `toml:"model"`
	Endpoint    string        `toml:"endpoint"`
	APIKey      string        `toml:"api_key"`
	Timeout     time.Duration `toml:"timeout"`
	MaxTokens   int           `toml:"max_tokens"`
	Temperature float64       `toml:"temperature"`
}

// ChunkingConfig tunes the chunker.
type ChunkingConfig struct {
	MaxSectionSize      int `toml:"max_section_size"`
	LatexMaxSectionSize int `toml:"latex_max_section_size"`
	Overlap             int `toml:"overlap"`
}

// RetrievalConfig tunes hybrid search.
type RetrievalConfig struct {
	// LexicalWeight is the BM25 share of the combined score; the
	// semantic share is its complement.
	LexicalWeight float64 `toml:"lexical_weight"`

	// CandidateK is how many lexical candidates are re-ranked.
	CandidateK int `toml:"candidate_k"`
}

// TaskConfig tunes the background worker.
type TaskConfig struct {
	// Retention is how long finished tasks stay queryable.
	Retention time.Duration `toml:"retention"`
}

// SourceConfig tunes the paper source client.
type SourceConfig struct {
	// RatePerSecond caps outbound requests to the archive.
	RatePerSecond float64 `toml:"rate_per_second"`

	Timeout  time.Duration `toml:"timeout"`
	CacheDir string        `toml:"cache_dir"`
}

// ConfigStore loads, persists and watches the application
// configuration. Implementations handle file formats and environment
// overrides.
type ConfigStore interface {
	// Load reads, overlays environment overrides, validates and
	// returns the configuration.
	Load() (*Config, error)

	// Save persists the configuration to storage.
	Save(cfg *Config) error

	// Watch invokes onChange with a freshly loaded configuration each
	// time the backing file changes, until ctx is cancelled. Reload
	// failures are logged and skipped.
	Watch(ctx context.Context, onChange func(*Config)) error

	// Path returns the configuration file path.
	Path() string
}
