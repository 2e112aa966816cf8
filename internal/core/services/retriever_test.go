package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
)

func chunk(paperID, section, text string, index int) domain.Chunk {
	return domain.Chunk{
		PaperID:    paperID,
		Section:    section,
		Text:       text,
		ChunkIndex: index,
	}
}

func TestEnhanceQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
		not   []string
	}{
		{
			name:  "lowercases and strips punctuation",
			query: "What METHODS?!",
			want:  []string{"what", "methods"},
		},
		{
			name:  "expands question words",
			query: "how does it work",
			want:  []string{"method", "approach"},
		},
		{
			name:  "drops short stop words",
			query: "results of the experiment",
			not:   []string{" of ", " the "},
			want:  []string{"results", "experiment", "evaluation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnhanceQuery(tt.query)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, " "+got+" ", n)
			}
		})
	}
}

func TestQuery_HybridFusion(t *testing.T) {
	// Two lexical candidates. The second has a lower BM25 score but a
	// perfectly aligned embedding, so the 30/70 fusion must pick it.
	weak := chunk("p1", "Methods", "weak lexical strong semantic", 1)
	strong := chunk("p1", "Intro", "strong lexical weak semantic", 0)

	index := &mockIndexStore{
		lexicalHits: []domain.ScoredChunk{
			{Chunk: strong, Score: 2.0},
			{Chunk: weak, Score: 1.0},
		},
		chunks: []domain.Chunk{strong, weak},
	}
	embedder := &mockEmbedder{
		embedding: []float32{1, 0},
		vectors: map[string][]float32{
			weak.Text:   {1, 0},
			strong.Text: {0, 1},
		},
	}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "query", domain.QueryOptions{})
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Equal(t, weak.Text, result.Best.Chunk.Text)
	assert.Equal(t, "hybrid", result.Best.SearchType)
	assert.InDelta(t, 1.0, result.Best.LexicalScore, 1e-9)
	assert.InDelta(t, 1.0, result.Best.SemanticScore, 1e-9)
	assert.InDelta(t, 0.3*1.0+0.7*1.0, result.Best.Score, 1e-9)
}

func TestQuery_PaperFilterNeverLeaks(t *testing.T) {
	mine := chunk("X", "Intro", "matching text from X", 0)
	other := chunk("Y", "Intro", "better matching text from Y", 0)

	index := &mockIndexStore{
		lexicalHits: []domain.ScoredChunk{
			{Chunk: other, Score: 10.0},
			{Chunk: mine, Score: 1.0},
		},
		chunks: []domain.Chunk{mine, other},
	}
	embedder := &mockEmbedder{embedding: []float32{1, 0}}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "matching", domain.QueryOptions{PaperID: "X"})
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Equal(t, "X", result.Best.Chunk.PaperID)
	for _, c := range result.SectionChunks {
		assert.Equal(t, "X", c.PaperID)
	}
}

func TestQuery_EmptyIndexNoResults(t *testing.T) {
	svc := NewRetrieverService(&mockIndexStore{}, &mockEmbedder{embedding: []float32{1}}, driven.RetrievalConfig{})

	result, err := svc.Query(context.Background(), "anything", domain.QueryOptions{})
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Context)
}

func TestQuery_EmptyQueryNoResults(t *testing.T) {
	svc := NewRetrieverService(&mockIndexStore{}, &mockEmbedder{}, driven.RetrievalConfig{})

	result, err := svc.Query(context.Background(), "   ", domain.QueryOptions{})
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestQuery_DenseFallbackWhenNoLexicalHits(t *testing.T) {
	hit := chunk("p1", "Results", "dense only", 3)
	index := &mockIndexStore{
		denseHits: []domain.ScoredChunk{{Chunk: hit, Score: 0.9, SearchType: "dense"}},
		chunks:    []domain.Chunk{hit},
	}
	embedder := &mockEmbedder{embedding: []float32{1, 0}}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "unmatched terms", domain.QueryOptions{})
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, "dense", result.Best.SearchType)
}

func TestQuery_DenseFallbackFilterEmptyReturnsBestUnfiltered(t *testing.T) {
	other := chunk("Y", "Intro", "only paper Y matches", 0)
	index := &mockIndexStore{
		denseHits: []domain.ScoredChunk{{Chunk: other, Score: 0.8, SearchType: "dense"}},
		chunks:    []domain.Chunk{other},
	}
	embedder := &mockEmbedder{embedding: []float32{1, 0}}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "zzz", domain.QueryOptions{PaperID: "X"})
	require.NoError(t, err)

	// Filtered search came up empty; the best unfiltered hit is
	// better than nothing.
	require.True(t, result.Found)
	assert.Equal(t, "Y", result.Best.Chunk.PaperID)
	require.Len(t, index.denseCalls, 2)
	assert.Equal(t, "X", index.denseCalls[0].PaperID)
	assert.Equal(t, "", index.denseCalls[1].PaperID)
}

func TestQuery_EmbedFailureDegradesToTopLexical(t *testing.T) {
	top := chunk("p1", "Intro", "top lexical", 0)
	index := &mockIndexStore{
		lexicalHits: []domain.ScoredChunk{{Chunk: top, Score: 5.0, SearchType: "lexical"}},
		chunks:      []domain.Chunk{top},
	}
	embedder := &mockEmbedder{embedErr: domain.ErrEmbeddingUnavailable}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "top", domain.QueryOptions{})
	require.NoError(t, err)
	require.True(t, result.Found)
	assert.Equal(t, top.Text, result.Best.Chunk.Text)
}

func TestQuery_SectionSiblingsInOrder(t *testing.T) {
	a := chunk("p1", "Methods", "methods part one", 2)
	b := chunk("p1", "Methods", "methods part two", 3)
	other := chunk("p1", "Results", "results text", 4)

	index := &mockIndexStore{
		lexicalHits: []domain.ScoredChunk{{Chunk: b, Score: 1.0}},
		chunks:      []domain.Chunk{other, b, a},
	}
	embedder := &mockEmbedder{embedding: []float32{1}}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "methods", domain.QueryOptions{})
	require.NoError(t, err)

	require.Len(t, result.SectionChunks, 2)
	assert.Equal(t, 2, result.SectionChunks[0].ChunkIndex)
	assert.Equal(t, 3, result.SectionChunks[1].ChunkIndex)
	assert.Equal(t, a.Text+"\n\n"+b.Text, result.Context)
}

func TestQuery_ContextCapAppendsBestChunk(t *testing.T) {
	long := strings.Repeat("a", 3000)
	c1 := chunk("p1", "Intro", long, 0)
	c2 := chunk("p1", "Intro", long, 1)

	index := &mockIndexStore{
		lexicalHits: []domain.ScoredChunk{{Chunk: c2, Score: 1.0}},
		chunks:      []domain.Chunk{c1, c2},
	}
	embedder := &mockEmbedder{embedding: []float32{1}}

	svc := NewRetrieverService(index, embedder, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "intro", domain.QueryOptions{})
	require.NoError(t, err)

	assert.Contains(t, result.Context, "Most relevant excerpt:")
	assert.True(t, strings.HasSuffix(result.Context, c2.Text))
}

func TestQuery_PreviewTruncated(t *testing.T) {
	text := strings.Repeat("x", 500)
	c := chunk("p1", "Intro", text, 0)
	index := &mockIndexStore{
		lexicalHits: []domain.ScoredChunk{{Chunk: c, Score: 1.0}},
		chunks:      []domain.Chunk{c},
	}

	svc := NewRetrieverService(index, &mockEmbedder{embedding: []float32{1}}, driven.RetrievalConfig{})
	result, err := svc.Query(context.Background(), "xxxx", domain.QueryOptions{})
	require.NoError(t, err)

	assert.Len(t, result.Preview, 203)
	assert.True(t, strings.HasSuffix(result.Preview, "..."))
}
