package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/paperag/internal/chunker"
	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/extract"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService drives the full ingestion pipeline for one paper:
// fetch, extract, chunk, embed, index.
type IngestService struct {
	source   driven.PaperSource
	index    driven.IndexStore
	embedder driven.EmbeddingService
	chunker  *chunker.Chunker
}

// NewIngestService creates a new ingestion orchestrator.
func NewIngestService(
	source driven.PaperSource,
	index driven.IndexStore,
	embedder driven.EmbeddingService,
	ch *chunker.Chunker,
) *IngestService {
	if ch == nil {
		ch = chunker.New()
	}
	return &IngestService{
		source:   source,
		index:    index,
		embedder: embedder,
		chunker:  ch,
	}
}

// IsIngested reports whether the paper already has indexed chunks.
// The index is the only source of truth for readiness; no cached
// flags are kept anywhere else.
func (s *IngestService) IsIngested(ctx context.Context, paperID string) (bool, error) {
	count, err := s.index.CountChunks(ctx, paperID)
	if err != nil {
		return false, fmt.Errorf("count chunks: %w", err)
	}
	return count > 0, nil
}

// Progress checkpoints reported at the start of each stage.
const (
	progressDownloading = 10
	progressExtracting  = 25
	progressChunking    = 50
	progressIndexing    = 75
)

// Ingest processes a paper end to end. Pipeline failures are reported
// in the stage-tagged result; the error return covers context
// cancellation only.
func (s *IngestService) Ingest(ctx context.Context, paperID, locator string, onProgress driving.ProgressFunc) (domain.IngestResult, error) {
	logger.Section("Ingestion")
	logger.Info("Ingesting paper %s", paperID)

	report := func(stage string, percent int) {
		if onProgress != nil {
			onProgress(stage, percent)
		}
	}

	result := domain.IngestResult{PaperID: paperID}

	ingested, err := s.IsIngested(ctx, paperID)
	if err != nil {
		return s.fail(result, domain.StageQueued, err)
	}
	if ingested {
		logger.Info("Paper %s already indexed, skipping", paperID)
		result.Success = true
		result.Cached = true
		return result, nil
	}

	// Locator overrides the source lookup key when set.
	fetchID := paperID
	if locator != "" {
		fetchID = locator
	}

	report(domain.StageDownloading, progressDownloading)
	bundle, err := s.source.Fetch(ctx, fetchID)
	if err != nil {
		return s.fail(result, domain.StageDownloading, err)
	}
	logger.Debug("Fetched %s bundle for %s", bundle.Format, paperID)

	report(domain.StageExtracting, progressExtracting)
	paper, err := s.extractPaper(paperID, bundle)
	if err != nil {
		return s.fail(result, domain.StageExtracting, err)
	}
	logger.Debug("Extracted %d chars, %d sections via %s",
		len(paper.Text), len(paper.Sections), paper.Method)

	report(domain.StageChunking, progressChunking)
	chunks := s.chunker.Chunk(paper)
	if len(chunks) == 0 {
		return s.fail(result, domain.StageChunking, domain.ErrEmptyDocument)
	}
	logger.Debug("Produced %d chunks", len(chunks))

	report(domain.StageIndexing, progressIndexing)
	vectors, err := s.embedder.EmbedBatch(ctx, chunkTexts(chunks))
	if err != nil {
		return s.fail(result, domain.StageIndexing, err)
	}

	if err := s.index.Add(ctx, chunks, vectors); err != nil {
		return s.fail(result, domain.StageIndexing, err)
	}

	result.Success = true
	result.Stats = domain.IngestStats{
		Chunks:     len(chunks),
		Sections:   len(paper.Sections),
		Method:     paper.Method,
		Characters: len(paper.Text),
	}
	logger.Info("Indexed %s: %d chunks from %d sections",
		paperID, result.Stats.Chunks, result.Stats.Sections)
	return result, nil
}

// extractPaper turns a source bundle into a structured paper.
func (s *IngestService) extractPaper(paperID string, bundle *driven.SourceBundle) (*domain.Paper, error) {
	paper := &domain.Paper{
		ID:        paperID,
		Title:     bundle.Title,
		Authors:   bundle.Authors,
		FetchedAt: time.Now(),
	}

	switch bundle.Format {
	case driven.FormatLatex:
		doc, err := extract.ParseLatexArchive(bundle.Archive)
		if err != nil {
			return nil, fmt.Errorf("parse latex: %w", err)
		}
		if doc.Title != "" {
			paper.Title = doc.Title
		}
		if len(doc.Authors) > 0 {
			paper.Authors = doc.Authors
		}
		paper.Text = doc.Text
		paper.Sections = doc.Sections
		paper.Method = domain.ExtractionLatex

	case driven.FormatPageText, driven.FormatPlainText:
		paper.Text = strings.Join(bundle.Pages, "\n\n")
		paper.Sections = extract.DetectWithLayout(paper.Text, bundle.Lines)
		paper.Method = domain.ExtractionPageText
		if bundle.Format == driven.FormatPlainText {
			paper.Method = domain.ExtractionPlainText
		}

	default:
		return nil, fmt.Errorf("bundle format %q: %w", bundle.Format, domain.ErrUnsupportedFormat)
	}

	if strings.TrimSpace(paper.Text) == "" {
		return nil, domain.ErrEmptyDocument
	}
	return paper, nil
}

// fail tags a result with the failed stage. Cancellation propagates
// as an error so the caller can tell an aborted run from a broken one.
func (s *IngestService) fail(result domain.IngestResult, stage string, err error) (domain.IngestResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return result, err
	}
	logger.Warn("Ingestion of %s failed at %s: %v", result.PaperID, stage, err)
	result.Stage = stage
	result.Error = err.Error()
	return result, nil
}

// chunkTexts collects the text of each chunk for batch embedding.
func chunkTexts(chunks []domain.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
