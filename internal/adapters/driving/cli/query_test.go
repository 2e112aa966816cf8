package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

func captureCmd() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func TestOutputQueryTextNoResults(t *testing.T) {
	cmd, buf := captureCmd()

	err := outputQueryText(cmd, &domain.QueryResult{Found: false})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No relevant passages found.")
}

func TestOutputQueryTextHybridBreakdown(t *testing.T) {
	cmd, buf := captureCmd()

	result := &domain.QueryResult{
		Found: true,
		Best: domain.ScoredChunk{
			Chunk: domain.Chunk{
				PaperID: "2301.00001",
				Section: "Methods",
			},
			Score:         0.82,
			LexicalScore:  1.4,
			SemanticScore: 0.91,
			SearchType:    "hybrid",
		},
		Preview: "We propose a two stage pipeline...",
	}

	err := outputQueryText(cmd, result)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2301.00001")
	assert.Contains(t, out, "Methods")
	assert.Contains(t, out, "hybrid")
	assert.Contains(t, out, "lexical 1.400")
	assert.Contains(t, out, "semantic 0.910")
	assert.Contains(t, out, "We propose a two stage pipeline...")
}

func TestOutputQueryTextDenseHasNoBreakdown(t *testing.T) {
	cmd, buf := captureCmd()

	result := &domain.QueryResult{
		Found: true,
		Best: domain.ScoredChunk{
			Chunk:      domain.Chunk{PaperID: "p", Section: "Intro"},
			Score:      0.5,
			SearchType: "dense",
		},
		Preview: "preview",
	}

	require.NoError(t, outputQueryText(cmd, result))
	assert.NotContains(t, buf.String(), "lexical")
}
