package domain

import "time"

// Message roles used in a dialogue transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a dialogue about a paper.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// DefaultMaxDialogueChars is the transcript size above which older
// turns are folded into the summary block.
const DefaultMaxDialogueChars = 1000

// DialogueStats describes the state of one paper's dialogue.
type DialogueStats struct {
	// Messages is the number of live (uncompacted) turns.
	Messages int

	// TotalChars is the character count of the live transcript.
	TotalChars int

	// SummaryChars is the character count of the summary block.
	SummaryChars int

	// Compactions counts how many times older turns were folded
	// into the summary block.
	Compactions int
}
