package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

func sentenceRun(n int) string {
	// n sentences of exactly 60 characters each.
	return strings.Repeat(strings.Repeat("x", 58)+". ", n)
}

func TestChunk_SectionsWithinLimit(t *testing.T) {
	paper := &domain.Paper{
		ID:     "2304.01234",
		Text:   "whole text",
		Method: domain.ExtractionPageText,
		Sections: []domain.Section{
			{Title: "Abstract", Level: 0, StartPos: 0, EndPos: 50, Content: strings.Repeat("a", 50)},
			{Title: "Conclusion", Level: 0, StartPos: 50, EndPos: 130, Content: strings.Repeat("c", 80)},
		},
	}

	chunks := New().Chunk(paper)
	require.Len(t, chunks, 2)

	assert.Equal(t, "Abstract", chunks[0].Section)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "Conclusion", chunks[1].Section)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
	for _, c := range chunks {
		assert.Equal(t, "2304.01234", c.PaperID)
		assert.Equal(t, domain.ProvenanceSection, c.Provenance)
	}
}

func TestChunk_OversizedSectionSplits(t *testing.T) {
	intro := sentenceRun(25) // 1500 chars
	paper := &domain.Paper{
		ID:     "2304.01234",
		Text:   "whole text",
		Method: domain.ExtractionPageText,
		Sections: []domain.Section{
			{Title: "Abstract", Content: strings.Repeat("a", 50)},
			{Title: "Introduction", Content: intro},
			{Title: "Conclusion", Content: strings.Repeat("c", 80)},
		},
	}

	chunks := New().Chunk(paper)
	require.Len(t, chunks, 4)

	// Indices are global and monotonic across sections.
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
	assert.Equal(t, "Abstract", chunks[0].Section)
	assert.Equal(t, "Introduction", chunks[1].Section)
	assert.Equal(t, "Introduction", chunks[2].Section)
	assert.Equal(t, "Conclusion", chunks[3].Section)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), DefaultMaxSectionSize)
	}

	// Adjacent chunks of one section share overlapping text.
	tail := chunks[1].Text[len(chunks[1].Text)-100:]
	assert.Contains(t, chunks[2].Text, tail)
}

func TestChunk_LatexLimitDoubles(t *testing.T) {
	paper := &domain.Paper{
		ID:     "2304.01234",
		Text:   "whole text",
		Method: domain.ExtractionLatex,
		Sections: []domain.Section{
			{Title: "Introduction", Content: sentenceRun(25)}, // 1500 chars
		},
	}

	chunks := New().Chunk(paper)
	require.Len(t, chunks, 1)
	assert.Equal(t, domain.ProvenanceLatexSection, chunks[0].Provenance)
}

func TestChunk_NoSectionsFallsBack(t *testing.T) {
	paper := &domain.Paper{
		ID:   "2304.01234",
		Text: strings.Repeat("y", 2500),
	}

	chunks := New().Chunk(paper)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, domain.ProvenanceTextSplit, c.Provenance)
		assert.LessOrEqual(t, len(c.Text), DefaultMaxSectionSize)
	}
}

func TestChunk_EmptyText(t *testing.T) {
	assert.Nil(t, New().Chunk(&domain.Paper{ID: "p"}))
	assert.Nil(t, New().Chunk(nil))
}

func TestSplitter_HardCutTerminates(t *testing.T) {
	s := newSplitter(100, 20)
	parts := s.split(strings.Repeat("z", 1000))
	require.NotEmpty(t, parts)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 100)
	}
	// Full coverage: concatenation without overlap removal must
	// contain at least the original character count.
	var total int
	for _, p := range parts {
		total += len(p)
	}
	assert.GreaterOrEqual(t, total, 1000)
}

func TestNew_OverlapClamped(t *testing.T) {
	c := New(WithMaxSectionSize(100), WithOverlap(500))
	assert.Equal(t, 25, c.overlap)
}
