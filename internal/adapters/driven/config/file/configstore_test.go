package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/ports/driven"
)

func TestConfigStore_LoadDefaults(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 1000, cfg.Chunking.MaxSectionSize)
	assert.Equal(t, 2000, cfg.Chunking.LatexMaxSectionSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.InDelta(t, 0.3, cfg.Retrieval.LexicalWeight, 1e-9)
	assert.Equal(t, 10, cfg.Retrieval.CandidateK)
	assert.Equal(t, 24*time.Hour, cfg.Tasks.Retention)
	assert.NotEmpty(t, cfg.Source.CacheDir)
}

func TestConfigStore_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)
	cfg.Embedding.Model = "text-embedding-3-small"
	cfg.Embedding.Provider = "openai"
	cfg.Retrieval.LexicalWeight = 0.5

	require.NoError(t, store.Save(cfg))

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", reloaded.Embedding.Model)
	assert.InDelta(t, 0.5, reloaded.Retrieval.LexicalWeight, 1e-9)
}

func TestConfigStore_EnvOverrides(t *testing.T) {
	t.Setenv("PAPERAG_LLM_PROVIDER", "openai")
	t.Setenv("PAPERAG_LLM_MODEL", "gpt-4o-mini")
	t.Setenv("PAPERAG_LEXICAL_WEIGHT", "0.4")

	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.InDelta(t, 0.4, cfg.Retrieval.LexicalWeight, 1e-9)
}

func TestConfigStore_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	err = os.WriteFile(store.Path(), []byte("[retrieval]\nlexical_weight = 1.5\n"), 0600)
	require.NoError(t, err)

	_, err = store.Load()
	assert.Error(t, err)

	err = os.WriteFile(store.Path(), []byte("[llm]\nprovider = \"cohere\"\n"), 0600)
	require.NoError(t, err)

	_, err = store.Load()
	assert.Error(t, err)
}

func TestConfigStore_WatchDeliversReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan *driven.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func(cfg *driven.Config) {
			select {
			case changes <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)

	err = os.WriteFile(store.Path(), []byte("[llm]\nmodel = \"llama3.2\"\n"), 0600)
	require.NoError(t, err)

	select {
	case cfg := <-changes:
		assert.Equal(t, "llama3.2", cfg.LLM.Model)
	case <-ctx.Done():
		t.Fatal("no config change observed")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestConfigStore_Path(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
