package driving

import (
	"context"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// Retriever answers retrieval queries over the index.
type Retriever interface {
	// Query runs hybrid retrieval for the given text. An empty index
	// or zero hits yields a result with Found=false, not an error.
	Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error)
}

// Assistant generates answers to questions about an ingested paper,
// grounded in retrieved context and the paper's dialogue history.
type Assistant interface {
	// Ask retrieves context for the question, assembles the prompt
	// with the dialogue history and generates an answer. The exchange
	// is recorded in the paper's dialogue.
	Ask(ctx context.Context, paperID, question string) (*domain.Answer, error)
}
