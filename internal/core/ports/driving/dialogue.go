package driving

import "github.com/custodia-labs/paperag/internal/core/domain"

// DialogueManager keeps per-paper conversation context with automatic
// compaction of older turns.
type DialogueManager interface {
	// Add appends a turn to the paper's dialogue, compacting older
	// turns into the summary block when the transcript grows past
	// the configured limit.
	Add(paperID, role, content string)

	// Context returns the prompt context for a paper: the summary
	// block, if any, followed by the live transcript.
	Context(paperID string) string

	// Stats describes the paper's dialogue state.
	Stats(paperID string) domain.DialogueStats

	// Clear discards the paper's dialogue entirely.
	Clear(paperID string)
}
