package domain

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// PaperID restricts results to a single paper. Empty means no filter.
	PaperID string
}

// ScoredChunk is a chunk with a relevance score attached.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the relevance score. Its scale depends on the search
	// stage: BM25 for lexical hits, cosine similarity for dense hits,
	// and the fixed-weight fusion for hybrid winners.
	Score float64

	// LexicalScore and SemanticScore are the components of a hybrid
	// score. Zero for non-hybrid results.
	LexicalScore  float64
	SemanticScore float64

	// SearchType records which stage produced this result:
	// "lexical", "dense" or "hybrid".
	SearchType string
}

// QueryResult is the outcome of one retrieval query.
// A query against an empty index yields Found=false, never an error.
type QueryResult struct {
	// Found reports whether any relevant chunk was located.
	Found bool

	// Query is the original query text.
	Query string

	// EnhancedQuery is the query after normalisation and synonym expansion.
	EnhancedQuery string

	// Best is the single most relevant chunk.
	Best ScoredChunk

	// SectionChunks are all chunks sharing the best chunk's section,
	// in document order.
	SectionChunks []Chunk

	// Context is the assembled section text handed to answer generation.
	Context string

	// Preview is a short excerpt of the best chunk.
	Preview string
}

// MaxContextChars caps the assembled section context. Beyond this the
// context is truncated and the best chunk is appended verbatim.
const MaxContextChars = 4000

// Answer is a generated response to a question about a paper.
type Answer struct {
	// Found reports whether retrieval located relevant content.
	// When false, Content explains that nothing matched.
	Found bool

	// Content is the generated answer text.
	Content string

	// Section is the paper section the answer was grounded in.
	Section string

	// Retrieval is the query result the answer was built from.
	Retrieval *QueryResult

	// TokensUsed is the backend-reported token usage, if any.
	TokensUsed int
}
