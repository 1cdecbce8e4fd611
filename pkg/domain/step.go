package domain

// StepKind selects the capability implementation used to run a step.
type StepKind string

const (
	// KindLLM sends the assembled prompt to a generation provider.
	KindLLM StepKind = "llm"
	// KindRender persists the rendered instruction as-is, without calling a provider.
	KindRender StepKind = "render"
)

// Sampling groups the provider sampling parameters.
type Sampling struct {
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	TopP        float64 `json:"top_p" mapstructure:"top_p"`
	N           int     `json:"n" mapstructure:"n"`
}

// StepConfig is the resolved configuration of a single step.
// It is produced by merging the global defaults with the step overrides.
type StepConfig struct {
	Name string `json:"name" mapstructure:"-"`

	Kind     StepKind `json:"kind" mapstructure:"kind"`
	Provider string   `json:"provider" mapstructure:"provider"`
	Model    string   `json:"model" mapstructure:"model"`

	Sampling         Sampling `json:"sampling" mapstructure:"sampling"`
	MaxTokens        int      `json:"max_tokens" mapstructure:"max_tokens"`
	Stop             []string `json:"stop,omitempty" mapstructure:"stop"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty" mapstructure:"presence_penalty"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty" mapstructure:"frequency_penalty"`
	User             string   `json:"user,omitempty" mapstructure:"user"`

	// LogitBias maps token ids to a bias in [-100, 100].
	LogitBias map[string]int `json:"logit_bias,omitempty" mapstructure:"logit_bias"`

	// ProviderOptions carries adapter specific settings (e.g. base_url).
	ProviderOptions map[string]any `json:"provider_options,omitempty" mapstructure:"provider_options"`

	// Output naming. OutputFile wins over OutputFileSuffix.
	OutputFile       string `json:"output_file,omitempty" mapstructure:"output_file"`
	OutputFileSuffix string `json:"output_file_suffix,omitempty" mapstructure:"output_file_suffix"`

	// Template names the prompt resource to use instead of the step's own.
	Template string `json:"template,omitempty" mapstructure:"template"`

	// ExtractCodeBlock keeps only the first fenced block of the response.
	ExtractCodeBlock bool `json:"extract_code_block,omitempty" mapstructure:"extract_code_block"`

	// Timeout bounds a single generation call (e.g. "90s"). Empty means no bound.
	Timeout string `json:"timeout,omitempty" mapstructure:"timeout"`
}

// NamingRule identifies which output naming rule is effective.
type NamingRule int

const (
	NamingDefault NamingRule = iota
	NamingSuffix
	NamingExplicit
)

// NamingRule returns the effective rule by precedence explicit > suffix > default.
func (c StepConfig) NamingRule() NamingRule {
	switch {
	case c.OutputFile != "":
		return NamingExplicit
	case c.OutputFileSuffix != "":
		return NamingSuffix
	default:
		return NamingDefault
	}
}

// PromptName returns the prompt resource name for the step.
func (c StepConfig) PromptName() string {
	if c.Template != "" {
		return c.Template
	}
	return c.Name
}
