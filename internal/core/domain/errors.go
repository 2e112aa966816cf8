package domain

import "errors"

// Sentinel errors shared across the core. Adapters wrap these with
// %w so services and callers can branch with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPaperNotFound indicates the paper source has no such paper.
	ErrPaperNotFound = errors.New("paper not found")

	// ErrInvalidInput indicates a malformed request or argument.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a fetched document could not be
	// recognised as LaTeX source, PDF, or plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates extraction produced no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrEmbeddingUnavailable indicates the embedding backend cannot
	// be reached or returned no vector.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the completion backend cannot be
	// reached.
	ErrLLMUnavailable = errors.New("llm service unavailable")

	// ErrIndexCorrupt indicates the persisted index artifacts are
	// inconsistent with each other.
	ErrIndexCorrupt = errors.New("index artifacts inconsistent")

	// ErrIndexClosed indicates an operation on a closed index store.
	ErrIndexClosed = errors.New("index store closed")

	// ErrTaskExists indicates an active task already covers the paper.
	ErrTaskExists = errors.New("task already queued for paper")

	// ErrQueueClosed indicates the task queue is shutting down.
	ErrQueueClosed = errors.New("task queue closed")
)
