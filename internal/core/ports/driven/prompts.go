package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptIconDetect asks the vision model for a one-word ICON/TEXT/NOISE verdict.
	// This prompt has no format placeholders.
	PromptIconDetect = "icon_detect"

	// PromptIconClassify asks the vision model for strict JSON
	// {label, meaning, description, confidence}.
	// This prompt has no format placeholders.
	PromptIconClassify = "icon_classify"

	// PromptIntent classifies a question into the intent taxonomy.
	// The prompt template expects a %s placeholder for the question.
	PromptIntent = "intent"

	// PromptAnswer produces the grounded answer.
	// The prompt template expects %s placeholders for, in order,
	// the question, the retrieved manual sections and the intent style.
	PromptAnswer = "answer"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
