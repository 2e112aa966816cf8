package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driven"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.Assistant = (*AssistantService)(nil)

// noResultsAnswer is returned when retrieval found nothing relevant.
const noResultsAnswer = "No relevant content was found in this paper for that question."

// AssistantService answers questions about an ingested paper. Each
// answer is grounded in retrieved section context and the paper's
// dialogue history, and the exchange is recorded back into the
// dialogue.
type AssistantService struct {
	retriever driving.Retriever
	llm       driven.LLMService
	dialogues driving.DialogueManager
	prompts   driven.PromptStore

	maxTokens   int
	temperature float64
}

// NewAssistantService creates an assistant.
func NewAssistantService(
	retriever driving.Retriever,
	llm driven.LLMService,
	dialogues driving.DialogueManager,
	prompts driven.PromptStore,
	cfg driven.LLMConfig,
) *AssistantService {
	return &AssistantService{
		retriever:   retriever,
		llm:         llm,
		dialogues:   dialogues,
		prompts:     prompts,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Ask retrieves context for the question, assembles the prompt with
// the dialogue history and generates an answer.
func (s *AssistantService) Ask(ctx context.Context, paperID, question string) (*domain.Answer, error) {
	retrieval, err := s.retriever.Query(ctx, question, domain.QueryOptions{PaperID: paperID})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if !retrieval.Found {
		return &domain.Answer{
			Content:   noResultsAnswer,
			Retrieval: retrieval,
		}, nil
	}

	prompt, system, err := s.buildPrompt(paperID, question, retrieval)
	if err != nil {
		return nil, err
	}

	result, err := s.llm.Complete(ctx, prompt, driven.CompletionOptions{
		SystemPrompt: system,
		MaxTokens:    s.maxTokens,
		Temperature:  s.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	logger.Debug("Answer generated: %d tokens in %s", result.TokensUsed, result.Elapsed)

	s.dialogues.Add(paperID, domain.RoleUser, question)
	s.dialogues.Add(paperID, domain.RoleAssistant, result.Content)

	return &domain.Answer{
		Found:      true,
		Content:    result.Content,
		Section:    retrieval.Best.Chunk.Section,
		Retrieval:  retrieval,
		TokensUsed: result.TokensUsed,
	}, nil
}

// buildPrompt fills the answer template with retrieved context, the
// dialogue so far and the question.
func (s *AssistantService) buildPrompt(paperID, question string, retrieval *domain.QueryResult) (prompt, system string, err error) {
	system, err = s.prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", "", fmt.Errorf("load system prompt: %w", err)
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return "", "", fmt.Errorf("load answer template: %w", err)
	}

	history := s.dialogues.Context(paperID)
	if history == "" {
		history = "(none)"
	}
	return fmt.Sprintf(tmpl, retrieval.Context, history, question), system, nil
}
