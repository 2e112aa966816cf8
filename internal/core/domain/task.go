package domain

import "time"

// TaskStatus is the lifecycle state of an ingestion task.
// Transitions are monotonic: queued -> processing -> completed | error.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskError      TaskStatus = "error"
)

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskError
}

// rank orders statuses for monotonicity checks.
func (s TaskStatus) rank() int {
	switch s {
	case TaskQueued:
		return 0
	case TaskProcessing:
		return 1
	case TaskCompleted, TaskError:
		return 2
	}
	return -1
}

// CanTransition reports whether a move from s to next respects the
// monotonic lifecycle (no regression to an earlier status).
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	return next.rank() > s.rank()
}

// Task stages reported during ingestion, with their progress checkpoints.
const (
	StageQueued      = "queued"
	StageDownloading = "downloading"
	StageExtracting  = "extracting"
	StageChunking    = "chunking"
	StageIndexing    = "indexing"
	StageCompleted   = "completed"
	StageFailed      = "error"
)

// IngestTask tracks one queued paper ingestion.
type IngestTask struct {
	// ID is the unique task identifier.
	ID string

	// PaperID is the paper being ingested.
	PaperID string

	// Locator is an optional byte-fetch locator (e.g. a PDF URL).
	Locator string

	// Status is the current lifecycle state.
	Status TaskStatus

	// Stage is the named processing stage for progress display.
	Stage string

	// Progress is a 0-100 percentage checkpoint.
	Progress int

	// Cached is set when processing was skipped because the paper
	// was already indexed.
	Cached bool

	// Error holds the failure message when Status is TaskError.
	Error string

	// QueuedAt, StartedAt and FinishedAt are lifecycle timestamps.
	QueuedAt   time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// DefaultTaskRetention is how long terminal tasks are kept in the
// status history before cleanup.
const DefaultTaskRetention = 24 * time.Hour
