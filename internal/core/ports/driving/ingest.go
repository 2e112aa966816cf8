package driving

import (
	"context"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// ProgressFunc receives a stage checkpoint as ingestion advances.
// Callbacks run synchronously on the ingesting goroutine.
type ProgressFunc func(stage string, percent int)

// Ingestor runs the full ingestion pipeline for one paper:
// fetch, extract, chunk, index.
type Ingestor interface {
	// Ingest processes a paper end to end and reports a stage-tagged
	// result. onProgress, when non-nil, is invoked at the start of
	// each pipeline stage. Pipeline failures are carried in the
	// result, not returned as errors; the error return covers context
	// cancellation only.
	Ingest(ctx context.Context, paperID, locator string, onProgress ProgressFunc) (domain.IngestResult, error)

	// IsIngested reports whether the paper already has indexed chunks.
	IsIngested(ctx context.Context, paperID string) (bool, error)
}
