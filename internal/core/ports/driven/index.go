package driven

import (
	"context"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// IndexStore persists chunks in a dual dense+lexical index and serves
// both search modes. Vectors and metadata rows move in lockstep: a
// chunk's vector slot is its metadata key.
//
// Implementations must tolerate a single writer with concurrent
// readers; Add is atomic from a reader's point of view.
type IndexStore interface {
	// Add appends chunks and their embeddings to the index and
	// persists all artifacts. vectors[i] belongs to chunks[i] and is
	// already L2-normalised. On error the visible index is unchanged.
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// DenseSearch returns the top k chunks by inner product against
	// the normalised query vector, highest first. A non-empty
	// opts.PaperID restricts results to that paper.
	DenseSearch(ctx context.Context, query []float32, k int, opts domain.QueryOptions) ([]domain.ScoredChunk, error)

	// LexicalSearch returns the top k chunks by BM25 score for the
	// query text, highest first. Only positive scores are returned.
	// A non-empty opts.PaperID restricts results to that paper.
	LexicalSearch(ctx context.Context, query string, k int, opts domain.QueryOptions) ([]domain.ScoredChunk, error)

	// ListChunks returns every chunk of a paper ordered by chunk
	// index. Returns an empty slice for an unknown paper.
	ListChunks(ctx context.Context, paperID string) ([]domain.Chunk, error)

	// CountChunks reports how many chunks a paper has in the index.
	// A positive count means the paper is fully ingested.
	CountChunks(ctx context.Context, paperID string) (int, error)

	// Stats summarises the index contents.
	Stats(ctx context.Context) (domain.IndexStats, error)

	// Close flushes and releases the underlying storage.
	Close() error
}
