package domain

const (
	// InputContentKey is the reserved template key that resolves to the text of
	// the file that triggered the current invocation.
	InputContentKey = "input_content"

	// OutputExtension is appended to derived output file names.
	OutputExtension = ".txt"

	// DefaultSystemPrompt is used when a step has no system instruction resource.
	DefaultSystemPrompt = "You are a helpful assistant."

	// DefaultTemplate is used when a step has no instruction template resource.
	DefaultTemplate = "{{" + InputContentKey + "}}"

	// ContextLabelFormat prefixes every ancestor output sent as context.
	ContextLabelFormat = "[Context from %s]:\n"
)
