package domain

// SectionSummary is the generated summary of one paper section.
type SectionSummary struct {
	// Section is the section title ("" groups chunks with no known
	// section).
	Section string

	// Summary is the generated text. When Generated is false it is a
	// placeholder describing the section size instead.
	Summary string

	// Generated reports whether the model produced the summary.
	Generated bool

	// Chunks is how many chunks the section contributed.
	Chunks int

	// Characters is the length of the section text sent to the model,
	// after truncation.
	Characters int
}

// PaperSummary is a per-section summary of one ingested paper, in
// document order.
type PaperSummary struct {
	// PaperID is the summarised paper.
	PaperID string

	// Sections are the section summaries, ordered by first chunk.
	Sections []SectionSummary

	// TokensUsed is the total backend-reported token usage.
	TokensUsed int
}

// MaxSummaryInputChars caps the section text handed to the model.
// Longer sections are truncated with a marker.
const MaxSummaryInputChars = 8000
