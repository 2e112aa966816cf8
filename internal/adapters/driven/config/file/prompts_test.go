package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/ports/driven"
)

func TestPromptStore_LoadCreatesDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Constructor does no I/O.
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))

	prompt, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Contains(t, prompt, "research assistant")

	summary, err := store.Load(driven.PromptSummarySystem)
	require.NoError(t, err)
	assert.Contains(t, summary, "summarising")

	// First Load materialises the default files.
	_, statErr = os.Stat(filepath.Join(dir, driven.PromptAnswerSystem+".txt"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, driven.PromptSummaryUser+".txt"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(dir, "README.md"))
	assert.NoError(t, statErr)
}

func TestPromptStore_UserEditWins(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)

	custom := "Excerpts: %s\nHistory: %s\nQ: %s"
	path := filepath.Join(dir, driven.PromptAnswerUser+".txt")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0600))

	store.Reload()
	prompt, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(filepath.Join(t.TempDir(), "prompts"))
	require.NoError(t, err)

	_, err = store.Load("no_such_prompt")
	assert.Error(t, err)
}
