package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure SummarizeService implements the interface.
var _ driving.Summarizer = (*SummarizeService)(nil)

// Summary generation stays short and factual.
const (
	summaryMaxTokens   = 800
	summaryTemperature = 0.2

	// truncationMarker flags section text cut at the input cap.
	truncationMarker = "... [text truncated]"
)

// SummarizeService generates per-section summaries of an ingested
// paper from its indexed chunks.
type SummarizeService struct {
	index   driven.IndexStore
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewSummarizeService creates a summarizer.
func NewSummarizeService(
	index driven.IndexStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
) *SummarizeService {
	return &SummarizeService{
		index:   index,
		llm:     llm,
		prompts: prompts,
	}
}

// Summarize groups the paper's chunks by section and generates one
// summary per section, in document order. A section whose generation
// fails gets a placeholder so one bad completion does not discard the
// rest; cancellation aborts the run.
func (s *SummarizeService) Summarize(ctx context.Context, paperID string) (*domain.PaperSummary, error) {
	logger.Section("Summarization")
	logger.Info("Summarising paper %s", paperID)

	chunks, err := s.index.ListChunks(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("paper %s has no indexed chunks: %w", paperID, domain.ErrPaperNotFound)
	}

	sections := groupBySection(chunks)
	logger.Debug("Found %d sections to summarise", len(sections))

	summary := &domain.PaperSummary{PaperID: paperID}
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary.Sections = append(summary.Sections, s.summarizeSection(ctx, sec, summary))
	}

	logger.Info("Summarised %s: %d sections", paperID, len(summary.Sections))
	return summary, nil
}

// sectionGroup is one section's chunks in document order.
type sectionGroup struct {
	title  string
	chunks []domain.Chunk
}

// groupBySection splits chunks into per-section groups. The input is
// ordered by chunk index, so groups come out in document order.
func groupBySection(chunks []domain.Chunk) []sectionGroup {
	var groups []sectionGroup
	byTitle := make(map[string]int)

	for _, c := range chunks {
		i, ok := byTitle[c.Section]
		if !ok {
			i = len(groups)
			byTitle[c.Section] = i
			groups = append(groups, sectionGroup{title: c.Section})
		}
		groups[i].chunks = append(groups[i].chunks, c)
	}
	return groups
}

// summarizeSection generates one section's summary, accumulating
// token usage on the paper summary.
func (s *SummarizeService) summarizeSection(ctx context.Context, sec sectionGroup, total *domain.PaperSummary) domain.SectionSummary {
	text := sectionText(sec.chunks)
	out := domain.SectionSummary{
		Section:    sec.title,
		Chunks:     len(sec.chunks),
		Characters: len(text),
	}

	prompt, system, err := s.buildSummaryPrompt(sec.title, len(sec.chunks), text)
	if err != nil {
		logger.Warn("Summary prompt for %q: %v", sec.title, err)
		out.Summary = placeholderSummary(len(sec.chunks), len(text))
		return out
	}

	result, err := s.llm.Complete(ctx, prompt, driven.CompletionOptions{
		SystemPrompt: system,
		MaxTokens:    summaryMaxTokens,
		Temperature:  summaryTemperature,
	})
	if err != nil {
		logger.Warn("Summary of section %q failed: %v", sec.title, err)
		out.Summary = placeholderSummary(len(sec.chunks), len(text))
		return out
	}

	logger.Debug("Section %q summarised: %d tokens in %s", sec.title, result.TokensUsed, result.Elapsed)
	out.Summary = result.Content
	out.Generated = true
	total.TokensUsed += result.TokensUsed
	return out
}

// buildSummaryPrompt fills the summary template with one section.
func (s *SummarizeService) buildSummaryPrompt(title string, parts int, text string) (prompt, system string, err error) {
	system, err = s.prompts.Load(driven.PromptSummarySystem)
	if err != nil {
		return "", "", fmt.Errorf("load system prompt: %w", err)
	}
	tmpl, err := s.prompts.Load(driven.PromptSummaryUser)
	if err != nil {
		return "", "", fmt.Errorf("load summary template: %w", err)
	}

	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf(tmpl, title, parts, text), system, nil
}

// sectionText joins a section's chunk texts, capped at the summary
// input limit.
func sectionText(chunks []domain.Chunk) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c.Text); t != "" {
			texts = append(texts, t)
		}
	}

	text := strings.Join(texts, " ")
	if len(text) > domain.MaxSummaryInputChars {
		text = text[:domain.MaxSummaryInputChars] + truncationMarker
	}
	return text
}

// placeholderSummary describes a section the model could not
// summarise.
func placeholderSummary(chunks, characters int) string {
	return fmt.Sprintf("Summary unavailable. The section has %d parts, about %d characters.", chunks, characters)
}
