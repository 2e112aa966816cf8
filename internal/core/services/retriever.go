package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// Hybrid score fusion weights. The 30/70 split is a design invariant,
// not a per-query knob; the config override exists for experiments.
const (
	DefaultLexicalWeight = 0.3
	DefaultCandidateK    = 10

	previewChars = 200
)

// queryExpansions maps question words to related nouns that show up
// in paper prose. Expansion happens before stop-word removal so a
// dropped question word still contributes search terms.
var queryExpansions = map[string][]string{
	"what":       {"content", "overview", "description"},
	"how":        {"method", "approach", "way"},
	"why":        {"reason", "motivation"},
	"result":     {"conclusion", "finding", "outcome"},
	"method":     {"methodology", "approach", "algorithm"},
	"experiment": {"evaluation", "study", "analysis"},
}

// stopWords are filtered from queries, but only when short; a stop
// word of four or more characters is kept as a search term.
var stopWords = map[string]struct{}{
	"what": {}, "how": {}, "where": {}, "when": {}, "why": {}, "which": {},
	"in": {}, "on": {}, "with": {}, "by": {}, "for": {}, "from": {},
	"to": {}, "of": {}, "at": {}, "and": {}, "or": {}, "but": {},
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {},
	"this": {}, "that": {}, "it": {}, "not": {}, "no": {}, "yes": {},
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// RetrieverService runs two-stage hybrid retrieval: lexical candidate
// generation followed by semantic re-ranking.
type RetrieverService struct {
	index         driven.IndexStore
	embedder      driven.EmbeddingService
	lexicalWeight float64
	candidateK    int
}

// NewRetrieverService creates a new retriever. Zero-valued config
// fields fall back to the defaults.
func NewRetrieverService(index driven.IndexStore, embedder driven.EmbeddingService, cfg driven.RetrievalConfig) *RetrieverService {
	weight := cfg.LexicalWeight
	if weight == 0 {
		weight = DefaultLexicalWeight
	}
	k := cfg.CandidateK
	if k <= 0 {
		k = DefaultCandidateK
	}
	return &RetrieverService{
		index:         index,
		embedder:      embedder,
		lexicalWeight: weight,
		candidateK:    k,
	}
}

// Query runs hybrid retrieval for the given text. An empty index or
// zero hits yields Found=false, never an error.
func (s *RetrieverService) Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	logger.Section("Query Execution")
	logger.Debug("Query: %q, paper filter: %q", text, opts.PaperID)

	result := &domain.QueryResult{Query: text}

	text = strings.TrimSpace(text)
	if text == "" {
		logger.Debug("Empty query, returning no results")
		return result, nil
	}

	enhanced := EnhanceQuery(text)
	result.EnhancedQuery = enhanced
	logger.Debug("Enhanced query: %q", enhanced)

	best, err := s.searchBest(ctx, enhanced, opts)
	if err != nil {
		return nil, err
	}
	if best == nil {
		logger.Info("No relevant chunks found")
		return result, nil
	}

	logger.Info("Best chunk: paper=%s section=%q score=%.3f type=%s",
		best.Chunk.PaperID, best.Chunk.Section, best.Score, best.SearchType)

	siblings, err := s.sectionChunks(ctx, best.Chunk)
	if err != nil {
		return nil, err
	}

	result.Found = true
	result.Best = *best
	result.SectionChunks = siblings
	result.Context = assembleContext(siblings, best.Chunk)
	result.Preview = preview(best.Chunk.Text)
	return result, nil
}

// searchBest runs the two-stage hybrid pipeline and returns the
// winning chunk, or nil when nothing matched.
func (s *RetrieverService) searchBest(ctx context.Context, query string, opts domain.QueryOptions) (*domain.ScoredChunk, error) {
	candidates, err := s.index.LexicalSearch(ctx, query, s.candidateK, opts)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	logger.Debug("Lexical candidates: %d", len(candidates))

	if len(candidates) == 0 {
		return s.denseFallback(ctx, query, opts)
	}
	return s.rerank(ctx, query, candidates)
}

// rerank scores each lexical candidate against a fresh embedding of
// the query and fuses the scores. An embedding outage degrades to the
// top lexical candidate rather than failing the query.
func (s *RetrieverService) rerank(ctx context.Context, query string, candidates []domain.ScoredChunk) (*domain.ScoredChunk, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed, using top lexical candidate: %v", err)
		return &candidates[0], nil
	}

	var best *domain.ScoredChunk
	bestScore := -1.0

	for i := range candidates {
		candidate := candidates[i]

		chunkVec, err := s.embedder.Embed(ctx, candidate.Chunk.Text)
		if err != nil {
			logger.Warn("Re-ranking aborted, using top lexical candidate: %v", err)
			return &candidates[0], nil
		}

		semantic := cosine(queryVec, chunkVec)
		combined := s.lexicalWeight*candidate.Score + (1-s.lexicalWeight)*semantic

		if combined > bestScore {
			bestScore = combined
			candidate.LexicalScore = candidate.Score
			candidate.SemanticScore = semantic
			candidate.Score = combined
			candidate.SearchType = "hybrid"
			best = &candidate
		}
	}

	logger.Debug("Re-ranked %d candidates, best combined score %.3f", len(candidates), bestScore)
	return best, nil
}

// denseFallback searches the vector index directly when lexical
// search produced nothing. With a paper filter, an empty filtered
// result degrades to the best unfiltered hit rather than nothing.
func (s *RetrieverService) denseFallback(ctx context.Context, query string, opts domain.QueryOptions) (*domain.ScoredChunk, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	if stats.TotalChunks == 0 {
		return nil, nil
	}

	k := 5
	if opts.PaperID != "" {
		k = 10
	}
	logger.Debug("Dense fallback: k=%d", k)

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.DenseSearch(ctx, queryVec, k, opts)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}

	if len(hits) == 0 && opts.PaperID != "" {
		logger.Warn("No dense hits for paper %s, trying unfiltered", opts.PaperID)
		hits, err = s.index.DenseSearch(ctx, queryVec, 5, domain.QueryOptions{})
		if err != nil {
			return nil, fmt.Errorf("dense search: %w", err)
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return &hits[0], nil
}

// sectionChunks returns every chunk sharing the winner's section, in
// document order.
func (s *RetrieverService) sectionChunks(ctx context.Context, best domain.Chunk) ([]domain.Chunk, error) {
	all, err := s.index.ListChunks(ctx, best.PaperID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	siblings := make([]domain.Chunk, 0, len(all))
	for _, c := range all {
		if c.Section == best.Section {
			siblings = append(siblings, c)
		}
	}
	logger.Debug("Section %q has %d chunks", best.Section, len(siblings))
	return siblings, nil
}

// EnhanceQuery normalises a query for lexical search: lowercase,
// punctuation stripped, question words expanded with related nouns,
// short stop-words dropped.
func EnhanceQuery(query string) string {
	enhanced := strings.ToLower(strings.TrimSpace(query))
	enhanced = nonWordRe.ReplaceAllString(enhanced, " ")

	expanded := make([]string, 0, 8)
	for _, word := range strings.Fields(enhanced) {
		expanded = append(expanded, word)
		expanded = append(expanded, queryExpansions[word]...)
	}

	filtered := expanded[:0]
	for _, word := range expanded {
		if _, stop := stopWords[word]; stop && len(word) < 4 {
			continue
		}
		filtered = append(filtered, word)
	}

	if len(filtered) == 0 {
		return enhanced
	}
	return strings.Join(filtered, " ")
}

// assembleContext joins section chunks in order, capping the total.
// Past the cap the text is truncated and the best chunk is appended
// in full so the most relevant passage always survives.
func assembleContext(siblings []domain.Chunk, best domain.Chunk) string {
	texts := make([]string, len(siblings))
	for i, c := range siblings {
		texts[i] = c.Text
	}
	joined := strings.Join(texts, "\n\n")

	if len(joined) <= domain.MaxContextChars {
		return joined
	}

	logger.Debug("Context truncated from %d to %d chars", len(joined), domain.MaxContextChars)
	return joined[:domain.MaxContextChars] + "\n\nMost relevant excerpt:\n" + best.Text
}

// preview returns a short excerpt of a chunk's text.
func preview(text string) string {
	if len(text) <= previewChars {
		return text
	}
	return text[:previewChars] + "..."
}

// cosine computes the inner product of two L2-normalised vectors,
// which equals their cosine similarity.
func cosine(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
