// Package chunker turns a paper's section decomposition into
// retrieval chunks. Small sections become one chunk each; oversized
// sections are split recursively at natural boundaries with a fixed
// character overlap. Chunk indices are global and monotonic so the
// paper's reading order survives indexing.
package chunker

import (
	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/logger"
)

// DefaultMaxSectionSize is the default per-section chunk limit in characters.
const DefaultMaxSectionSize = 1000

// DefaultLatexMaxSectionSize is the per-section limit for LaTeX
// papers; cleaned LaTeX prose is denser, so it is doubled.
const DefaultLatexMaxSectionSize = 2000

// DefaultOverlap is the default number of overlapping characters
// between adjacent chunks of one section.
const DefaultOverlap = 200

// Chunker splits papers into indexable chunks.
type Chunker struct {
	maxSectionSize      int
	latexMaxSectionSize int
	overlap             int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxSectionSize sets the per-section chunk limit in characters.
func WithMaxSectionSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.maxSectionSize = size
		}
	}
}

// WithLatexMaxSectionSize sets the per-section chunk limit for LaTeX papers.
func WithLatexMaxSectionSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.latexMaxSectionSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxSectionSize:      DefaultMaxSectionSize,
		latexMaxSectionSize: DefaultLatexMaxSectionSize,
		overlap:             DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed the chunk limit
	if c.overlap >= c.maxSectionSize {
		c.overlap = c.maxSectionSize / 4
	}
	return c
}

// Chunk splits a paper into chunks. Empty text produces no chunks;
// a paper without sections degrades to flat splitting of the whole
// text, marked by provenance.
func (c *Chunker) Chunk(paper *domain.Paper) []domain.Chunk {
	if paper == nil || paper.Text == "" {
		return nil
	}
	if len(paper.Sections) == 0 {
		logger.Warn("paper %s has no sections, falling back to flat splitting", paper.ID)
		return c.flatSplit(paper)
	}

	limit := c.maxSectionSize
	provenance := domain.ProvenanceSection
	if paper.Method == domain.ExtractionLatex {
		limit = c.latexMaxSectionSize
		provenance = domain.ProvenanceLatexSection
	}

	split := newSplitter(limit, c.overlap)

	var chunks []domain.Chunk
	index := 0
	for _, section := range paper.Sections {
		if section.Content == "" {
			continue
		}
		if len(section.Content) <= limit {
			chunks = append(chunks, domain.Chunk{
				PaperID:      paper.ID,
				Text:         section.Content,
				ChunkIndex:   index,
				Section:      section.Title,
				SectionLevel: section.Level,
				StartPos:     section.StartPos,
				EndPos:       section.EndPos,
				Provenance:   provenance,
			})
			index++
			continue
		}
		for _, part := range split.split(section.Content) {
			chunks = append(chunks, domain.Chunk{
				PaperID:      paper.ID,
				Text:         part,
				ChunkIndex:   index,
				Section:      section.Title,
				SectionLevel: section.Level,
				StartPos:     section.StartPos,
				EndPos:       section.EndPos,
				Provenance:   provenance,
			})
			index++
		}
	}

	logger.Debug("chunked paper %s: %d sections -> %d chunks", paper.ID, len(paper.Sections), len(chunks))
	return chunks
}

// flatSplit chunks the whole text without structural hints.
func (c *Chunker) flatSplit(paper *domain.Paper) []domain.Chunk {
	split := newSplitter(c.maxSectionSize, c.overlap)

	var chunks []domain.Chunk
	for i, part := range split.split(paper.Text) {
		chunks = append(chunks, domain.Chunk{
			PaperID:    paper.ID,
			Text:       part,
			ChunkIndex: i,
			StartPos:   0,
			EndPos:     len(paper.Text),
			Provenance: domain.ProvenanceTextSplit,
		})
	}
	return chunks
}
