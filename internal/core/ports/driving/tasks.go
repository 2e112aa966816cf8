package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// TaskQueue schedules paper ingestions on a background worker and
// tracks their progress.
type TaskQueue interface {
	// Enqueue schedules an ingestion for a paper and returns the
	// task. While a task for the same paper is queued or processing,
	// repeated calls return that existing task.
	Enqueue(ctx context.Context, paperID, locator string) (*domain.IngestTask, error)

	// Get returns a task by ID.
	Get(id string) (*domain.IngestTask, bool)

	// GetByPaper returns the most recent task for a paper.
	GetByPaper(paperID string) (*domain.IngestTask, bool)

	// List returns all known tasks, newest first.
	List() []*domain.IngestTask

	// Cleanup removes terminal tasks older than the retention window
	// and returns how many were removed.
	Cleanup(retention time.Duration) int

	// Stop stops accepting work, lets the in-flight task finish and
	// joins the worker. Bounded by ctx.
	Stop(ctx context.Context) error
}
