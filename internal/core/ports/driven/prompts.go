package driven

// Prompt names used by the assistant.
const (
	// PromptAnswerSystem is the system prompt for answering questions
	// about a paper.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser is the template that frames retrieved context,
	// dialogue history and the question for the model.
	PromptAnswerUser = "answer_user"

	// PromptSummarySystem is the system prompt for summarising a
	// paper section.
	PromptSummarySystem = "summary_system"

	// PromptSummaryUser is the template that frames one section's
	// text for summarisation.
	PromptSummaryUser = "summary_user"
)

// PromptStore provides LLM prompt templates.
// Implementations may load from files, embedded defaults, or both.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads.
	Reload()
}
