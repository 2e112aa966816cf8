package driven

import (
	"context"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

// SourceFormat identifies what a fetched bundle carries.
type SourceFormat string

const (
	// FormatLatex means Archive holds a gzip tarball of LaTeX sources.
	FormatLatex SourceFormat = "latex"

	// FormatPageText means Pages holds per-page extracted text.
	FormatPageText SourceFormat = "page-text"

	// FormatPlainText means Pages holds a single flat text blob.
	FormatPlainText SourceFormat = "plain-text"
)

// SourceBundle is the raw material for one paper, as delivered by a
// paper source. Exactly one of Archive or Pages is populated,
// according to Format.
type SourceBundle struct {
	// PaperID is the identifier the bundle was fetched for.
	PaperID string

	// Title and Authors are source-provided metadata, when available.
	Title   string
	Authors []string

	// Format says which payload field is populated.
	Format SourceFormat

	// Archive is the gzip tarball of LaTeX sources (FormatLatex).
	Archive []byte

	// Pages is the extracted text, one element per page
	// (FormatPageText) or a single element (FormatPlainText).
	Pages []string

	// Lines carries per-line layout hints when the source could
	// observe the rendered pages. May be nil.
	Lines []domain.LayoutLine
}

// PaperSource fetches paper material from an external archive.
//
// Implementations must sniff payload formats from content, never from
// file extensions, and wrap unknown payloads in
// domain.ErrUnsupportedFormat. An unknown paper ID is reported as
// domain.ErrPaperNotFound.
type PaperSource interface {
	// Fetch retrieves the source bundle for a paper. Implementations
	// should cache downloaded artifacts so a retry after a downstream
	// failure does not re-download.
	Fetch(ctx context.Context, paperID string) (*SourceBundle, error)
}
