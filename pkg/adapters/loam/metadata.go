package loam

// PromptMetadata is the frontmatter of a prompt document.
// The document body is the instruction template.
type PromptMetadata struct {
	ID     string `json:"id" mapstructure:"id"`
	System string `json:"system" mapstructure:"system"`

	// Template, when set, replaces the document body as the instruction template.
	Template string `json:"template" mapstructure:"template"`

	Description string `json:"description" mapstructure:"description"`
}
