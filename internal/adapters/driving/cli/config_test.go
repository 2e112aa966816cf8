package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/ports/driven"
)

func TestApplyConfigKey(t *testing.T) {
	cfg := &driven.Config{}

	require.NoError(t, applyConfigKey(cfg, "embedding.provider", "openai"))
	require.NoError(t, applyConfigKey(cfg, "embedding.api_key", "sk-test"))
	require.NoError(t, applyConfigKey(cfg, "llm.model", "gpt-4o-mini"))
	require.NoError(t, applyConfigKey(cfg, "llm.max_tokens", "2048"))
	require.NoError(t, applyConfigKey(cfg, "llm.temperature", "0.4"))
	require.NoError(t, applyConfigKey(cfg, "retrieval.lexical_weight", "0.5"))
	require.NoError(t, applyConfigKey(cfg, "tasks.retention", "48h"))

	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 1e-9)
	assert.InDelta(t, 0.5, cfg.Retrieval.LexicalWeight, 1e-9)
	assert.Equal(t, "48h0m0s", cfg.Tasks.Retention.String())
}

func TestApplyConfigKeyRejectsBadValues(t *testing.T) {
	cfg := &driven.Config{}

	assert.Error(t, applyConfigKey(cfg, "llm.max_tokens", "lots"))
	assert.Error(t, applyConfigKey(cfg, "retrieval.lexical_weight", "1.5"))
	assert.Error(t, applyConfigKey(cfg, "tasks.retention", "soon"))
	assert.Error(t, applyConfigKey(cfg, "no.such.key", "x"))
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****5678", maskAPIKey("sk-12345678"))
	assert.Equal(t, "****", maskAPIKey("key"))
	assert.Equal(t, "****", maskAPIKey(""))
}
