package services

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockIndexStore implements driven.IndexStore for testing.
type mockIndexStore struct {
	lexicalHits []domain.ScoredChunk
	denseHits   []domain.ScoredChunk
	chunks      []domain.Chunk

	lexicalErr error
	denseErr   error
	addErr     error

	added        []domain.Chunk
	addedVectors [][]float32

	// denseCalls records the opts of each DenseSearch invocation.
	denseCalls []domain.QueryOptions
}

func (m *mockIndexStore) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, chunks...)
	m.addedVectors = append(m.addedVectors, vectors...)
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockIndexStore) DenseSearch(_ context.Context, _ []float32, k int, opts domain.QueryOptions) ([]domain.ScoredChunk, error) {
	m.denseCalls = append(m.denseCalls, opts)
	if m.denseErr != nil {
		return nil, m.denseErr
	}
	hits := filterScored(m.denseHits, opts.PaperID)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndexStore) LexicalSearch(_ context.Context, _ string, k int, opts domain.QueryOptions) ([]domain.ScoredChunk, error) {
	if m.lexicalErr != nil {
		return nil, m.lexicalErr
	}
	hits := filterScored(m.lexicalHits, opts.PaperID)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndexStore) ListChunks(_ context.Context, paperID string) ([]domain.Chunk, error) {
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.PaperID == paperID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (m *mockIndexStore) CountChunks(_ context.Context, paperID string) (int, error) {
	n := 0
	for _, c := range m.chunks {
		if c.PaperID == paperID {
			n++
		}
	}
	return n, nil
}

func (m *mockIndexStore) Stats(_ context.Context) (domain.IndexStats, error) {
	papers := make(map[string]struct{})
	for _, c := range m.chunks {
		papers[c.PaperID] = struct{}{}
	}
	return domain.IndexStats{
		TotalChunks:  len(m.chunks),
		VectorCount:  len(m.chunks),
		UniquePapers: len(papers),
	}, nil
}

func (m *mockIndexStore) Close() error { return nil }

func filterScored(hits []domain.ScoredChunk, paperID string) []domain.ScoredChunk {
	if paperID == "" {
		return append([]domain.ScoredChunk(nil), hits...)
	}
	var out []domain.ScoredChunk
	for _, h := range hits {
		if h.Chunk.PaperID == paperID {
			out = append(out, h)
		}
	}
	return out
}

// mockEmbedder implements driven.EmbeddingService for testing.
// Per-text vectors can be pinned via vectors; everything else gets
// the default embedding.
type mockEmbedder struct {
	embedding []float32
	vectors   map[string][]float32
	embedErr  error
	calls     int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.embedding, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response    string
	tokens      int
	completeErr error

	prompts []string
	systems []string
	closed  bool
}

func (m *mockLLM) Complete(_ context.Context, prompt string, opts driven.CompletionOptions) (*driven.CompletionResult, error) {
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	m.prompts = append(m.prompts, prompt)
	m.systems = append(m.systems, opts.SystemPrompt)
	return &driven.CompletionResult{
		Content:    m.response,
		TokensUsed: m.tokens,
		Elapsed:    time.Millisecond,
	}, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error {
	m.closed = true
	return nil
}

// mockSource implements driven.PaperSource for testing.
type mockSource struct {
	bundle   *driven.SourceBundle
	fetchErr error
	fetched  []string
}

func (m *mockSource) Fetch(_ context.Context, paperID string) (*driven.SourceBundle, error) {
	m.fetched = append(m.fetched, paperID)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	bundle := *m.bundle
	bundle.PaperID = paperID
	return &bundle, nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}
