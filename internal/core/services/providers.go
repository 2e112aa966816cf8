package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure LLMRegistry implements the interface.
var _ driven.LLMService = (*LLMRegistry)(nil)

// LLMFactory builds a completion backend from configuration. The
// wiring layer supplies one so this package stays free of concrete
// provider imports.
type LLMFactory func(cfg driven.LLMConfig) (driven.LLMService, error)

// LLMRegistry is a completion service whose backend can be swapped at
// runtime. Callers hold the registry; configuration changes replace
// the backend underneath them without restart.
type LLMRegistry struct {
	factory LLMFactory

	mu      sync.RWMutex
	current driven.LLMService
	cfg     driven.LLMConfig
}

// NewLLMRegistry creates a registry with no backend configured.
func NewLLMRegistry(factory LLMFactory) *LLMRegistry {
	return &LLMRegistry{factory: factory}
}

// Configure builds a backend for the given configuration and swaps it
// in, closing the previous one. A no-op when the configuration is
// unchanged.
func (r *LLMRegistry) Configure(cfg driven.LLMConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && cfg == r.cfg {
		return nil
	}

	next, err := r.factory(cfg)
	if err != nil {
		return fmt.Errorf("configure llm provider %q: %w", cfg.Provider, err)
	}

	if r.current != nil {
		if err := r.current.Close(); err != nil {
			logger.Warn("Closing previous llm backend: %v", err)
		}
		logger.Info("LLM backend swapped to %s/%s", cfg.Provider, next.ModelName())
	}
	r.current = next
	r.cfg = cfg
	return nil
}

// OnConfigChange applies a freshly loaded configuration. Suitable as
// a ConfigStore.Watch callback; swap failures keep the old backend.
func (r *LLMRegistry) OnConfigChange(cfg *driven.Config) {
	if err := r.Configure(cfg.LLM); err != nil {
		logger.Warn("LLM hot-swap skipped: %v", err)
	}
}

// Complete generates a completion using the current backend.
func (r *LLMRegistry) Complete(ctx context.Context, prompt string, opts driven.CompletionOptions) (*driven.CompletionResult, error) {
	backend := r.backend()
	if backend == nil {
		return nil, fmt.Errorf("no llm backend configured: %w", domain.ErrLLMUnavailable)
	}
	return backend.Complete(ctx, prompt, opts)
}

// ModelName returns the current backend's model name.
func (r *LLMRegistry) ModelName() string {
	if backend := r.backend(); backend != nil {
		return backend.ModelName()
	}
	return ""
}

// Ping checks the current backend's connectivity.
func (r *LLMRegistry) Ping(ctx context.Context) error {
	backend := r.backend()
	if backend == nil {
		return fmt.Errorf("no llm backend configured: %w", domain.ErrLLMUnavailable)
	}
	return backend.Ping(ctx)
}

// Close releases the current backend.
func (r *LLMRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}

func (r *LLMRegistry) backend() driven.LLMService {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
