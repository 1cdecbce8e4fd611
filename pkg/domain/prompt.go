package domain

import "fmt"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Message is a single chat message sent to a provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PromptResource is the raw prompt material of a step.
// Empty fields mean the resource is absent.
type PromptResource struct {
	Name     string `json:"name"`
	System   string `json:"system,omitempty"`
	Template string `json:"template,omitempty"`
}

// PromptAssembly is the transient prompt built for one step invocation.
type PromptAssembly struct {
	System      string    `json:"system"`
	Context     []Message `json:"context"`
	Instruction string    `json:"instruction"`
}

// NewContextMessage wraps an ancestor output as an assistant message.
func NewContextMessage(step, output string) Message {
	return Message{
		Role:    RoleAssistant,
		Content: fmt.Sprintf(ContextLabelFormat, step) + output,
	}
}

// Messages flattens the assembly in provider order: system, context, instruction.
func (p PromptAssembly) Messages() []Message {
	msgs := make([]Message, 0, len(p.Context)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: p.System})
	msgs = append(msgs, p.Context...)
	msgs = append(msgs, Message{Role: RoleUser, Content: p.Instruction})
	return msgs
}

// GenerationRequest is the input of a generation provider.
type GenerationRequest struct {
	Step   string
	Prompt PromptAssembly
	Config StepConfig
}

// Usage reports token accounting when the provider exposes it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Generation is the result of a successful provider call.
type Generation struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}
