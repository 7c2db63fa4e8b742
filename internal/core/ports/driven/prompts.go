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
const (
	// PromptSummarise asks for a short summary of one passage.
	// The prompt template expects a single %s placeholder for the content.
	PromptSummarise = "summarise"

	// PromptSummariseSystem is the system instruction for summaries.
	// This prompt has no format placeholders.
	PromptSummariseSystem = "summarise_system"
)

// DefaultPrompts returns the built-in prompt templates. Stores fall back to
// these when no user override exists.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptSummarise:       "Provide a concise (1-2 sentences) summary of the following text:\n\n%s",
		PromptSummariseSystem: "You are a helpful assistant.",
	}
}
