package domain

import "time"

// ExtractionMethod identifies how a paper's text and structure were obtained.
type ExtractionMethod string

const (
	// ExtractionLatex means the paper was parsed from its LaTeX source bundle.
	ExtractionLatex ExtractionMethod = "latex"

	// ExtractionPageText means the paper was built from per-page extracted text.
	ExtractionPageText ExtractionMethod = "page-text"

	// ExtractionPlainText means raw flat text with no structural hints.
	ExtractionPlainText ExtractionMethod = "plain-text"
)

// Paper represents a scientific paper after acquisition and extraction.
// It is immutable once extracted.
type Paper struct {
	// ID is the stable identifier, e.g. an arXiv ID like "2304.01234".
	ID string

	// Title is the paper title when known.
	Title string

	// Authors lists the paper authors when known.
	Authors []string

	// Text is the full extracted text of the paper.
	Text string

	// Sections is the ordered structural decomposition of Text.
	// Sections are contiguous, non-overlapping and cover the full text.
	Sections []Section

	// Method records how the text was extracted.
	Method ExtractionMethod

	// FetchedAt is when the paper was acquired.
	FetchedAt time.Time
}

// Section is a titled, contiguous span of a paper's text,
// detected heuristically by the structure extractor.
type Section struct {
	// Title is the detected header text, e.g. "2.1 Data Collection".
	Title string

	// Level is the nesting depth (0 = top-level section).
	Level int

	// StartPos and EndPos are character offsets into the paper text.
	StartPos int
	EndPos   int

	// Content is the section text, including its header line.
	Content string
}

// LayoutLine is one line of extracted page text together with its
// rendering hints. Sources that can see the rendered page attach
// these so the extractor can use visual prominence to find headers.
type LayoutLine struct {
	// Text is the line content.
	Text string

	// StartPos is the character offset of the line in the paper text.
	StartPos int

	// FontSize is the dominant font size of the line, in points.
	FontSize float64

	// Bold reports whether the dominant font face is bold.
	Bold bool
}

// ChunkProvenance marks how a chunk was produced, so callers can
// detect degraded (structure-less) chunking.
type ChunkProvenance string

const (
	// ProvenanceSection means the chunk came from section-aware chunking.
	ProvenanceSection ChunkProvenance = "section_based"

	// ProvenanceLatexSection means the chunk came from a LaTeX section.
	ProvenanceLatexSection ChunkProvenance = "latex_section"

	// ProvenanceTextSplit means structural parsing failed and the chunk
	// came from flat splitting of the whole text.
	ProvenanceTextSplit ChunkProvenance = "text_split"
)

// Chunk is the atomic unit of indexing and retrieval.
// Chunks of one paper, sorted by ChunkIndex, reconstruct the paper's
// reading order; adjacent chunks of one section overlap by a fixed
// number of characters.
type Chunk struct {
	// PaperID links to the owning paper.
	PaperID string

	// Text is the chunk content.
	Text string

	// ChunkIndex is the chunk's position within the paper. It is
	// global across all sections, monotonically increasing in
	// document order.
	ChunkIndex int

	// Section is the title of the owning section ("" when unknown).
	Section string

	// SectionLevel is the owning section's nesting depth.
	SectionLevel int

	// StartPos and EndPos are character offsets into the paper text,
	// when they are known.
	StartPos int
	EndPos   int

	// Provenance records which chunking path produced this chunk.
	Provenance ChunkProvenance
}
