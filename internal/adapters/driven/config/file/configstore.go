package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a TOML-backed implementation of driven.ConfigStore.
// Environment variables prefixed PAPERAG_ override file values on
// every Load.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.paperag/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".paperag")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	return &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads the configuration file, overlays environment overrides,
// fills defaults and validates. A missing file yields the defaults.
func (s *ConfigStore) Load() (*driven.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := &driven.Config{}

	data, err := os.ReadFile(s.filePath)
	switch {
	case os.IsNotExist(err):
		// No config file yet, defaults apply.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (s *ConfigStore) Save(cfg *driven.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// API keys may be present, keep the file private.
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Watch reloads the configuration whenever the backing file changes
// and hands it to onChange, until ctx is cancelled. Editors typically
// replace rather than rewrite files, so the parent directory is
// watched and events are filtered by path.
func (s *ConfigStore) Watch(ctx context.Context, onChange func(*driven.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.filePath {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			cfg, err := s.Load()
			if err != nil {
				logger.Warn("config reload skipped: %v", err)
				continue
			}
			logger.Debug("config reloaded from %s", s.filePath)
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher: %v", err)
		}
	}
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// envOverrides maps PAPERAG_* variables onto config fields.
var envOverrides = map[string]func(cfg *driven.Config, v string){
	"PAPERAG_DATA_DIR":           func(c *driven.Config, v string) { c.DataDir = v },
	"PAPERAG_EMBEDDING_PROVIDER": func(c *driven.Config, v string) { c.Embedding.Provider = v },
	"PAPERAG_EMBEDDING_MODEL":    func(c *driven.Config, v string) { c.Embedding.Model = v },
	"PAPERAG_EMBEDDING_ENDPOINT": func(c *driven.Config, v string) { c.Embedding.Endpoint = v },
	"PAPERAG_EMBEDDING_API_KEY":  func(c *driven.Config, v string) { c.Embedding.APIKey = v },
	"PAPERAG_LLM_PROVIDER":       func(c *driven.Config, v string) { c.LLM.Provider = v },
	"PAPERAG_LLM_MODEL":          func(c *driven.Config, v string) { c.LLM.Model = v },
	"PAPERAG_LLM_ENDPOINT":       func(c *driven.Config, v string) { c.LLM.Endpoint = v },
	"PAPERAG_LLM_API_KEY":        func(c *driven.Config, v string) { c.LLM.APIKey = v },
	"PAPERAG_LEXICAL_WEIGHT": func(c *driven.Config, v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retrieval.LexicalWeight = f
		}
	},
}

// applyEnvOverrides overlays PAPERAG_* environment variables.
func applyEnvOverrides(cfg *driven.Config) {
	for name, apply := range envOverrides {
		if v := os.Getenv(name); v != "" {
			apply(cfg, v)
		}
	}
}

// applyDefaults fills zero-valued fields.
func applyDefaults(cfg *driven.Config) {
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, ".paperag", "data")
		} else {
			cfg.DataDir = ".paperag-data"
		}
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 60 * time.Second
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 120 * time.Second
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.Chunking.MaxSectionSize == 0 {
		cfg.Chunking.MaxSectionSize = 1000
	}
	if cfg.Chunking.LatexMaxSectionSize == 0 {
		cfg.Chunking.LatexMaxSectionSize = 2000
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 200
	}
	if cfg.Retrieval.LexicalWeight == 0 {
		cfg.Retrieval.LexicalWeight = 0.3
	}
	if cfg.Retrieval.CandidateK == 0 {
		cfg.Retrieval.CandidateK = 10
	}
	if cfg.Tasks.Retention == 0 {
		cfg.Tasks.Retention = 24 * time.Hour
	}
	if cfg.Source.RatePerSecond == 0 {
		cfg.Source.RatePerSecond = 1
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 60 * time.Second
	}
	if cfg.Source.CacheDir == "" {
		cfg.Source.CacheDir = filepath.Join(cfg.DataDir, "cache")
	}
}

// validate rejects configurations the services cannot run with.
func validate(cfg *driven.Config) error {
	if cfg.Retrieval.LexicalWeight < 0 || cfg.Retrieval.LexicalWeight > 1 {
		return fmt.Errorf("lexical_weight %v outside [0, 1]", cfg.Retrieval.LexicalWeight)
	}
	if cfg.Chunking.MaxSectionSize < 1 {
		return fmt.Errorf("max_section_size must be positive, got %d", cfg.Chunking.MaxSectionSize)
	}
	if cfg.Chunking.Overlap < 0 {
		return fmt.Errorf("overlap must not be negative, got %d", cfg.Chunking.Overlap)
	}
	if !knownProvider(cfg.Embedding.Provider) {
		return fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	if !knownProvider(cfg.LLM.Provider) {
		return fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	return nil
}

func knownProvider(name string) bool {
	return name == "ollama" || name == "openai"
}
