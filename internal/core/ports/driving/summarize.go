package driving

import (
	"context"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// Summarizer produces per-section summaries of an ingested paper.
type Summarizer interface {
	// Summarize groups the paper's chunks by section and generates
	// one summary per section, in document order. A section whose
	// generation fails gets a placeholder summary; the error return
	// covers missing papers and context cancellation.
	Summarize(ctx context.Context, paperID string) (*domain.PaperSummary, error)
}
