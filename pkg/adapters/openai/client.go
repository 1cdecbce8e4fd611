// Package openai implements ports.Generator on top of the OpenAI Go SDK.
// Gemini is served through its OpenAI-compatible API by switching the base URL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/cascade/internal/logging"
	"github.com/aretw0/cascade/pkg/domain"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	OpenAIKeyEnv = "OPENAI_API_KEY"
	GeminiKeyEnv = "GEMINI_API_KEY"
	// GeminiLegacyKeyEnv is read when GeminiKeyEnv is unset.
	GeminiLegacyKeyEnv = "GEMINI_API_NEOTEK_KEY"

	// DefaultMaxRetries matches the SDK default.
	DefaultMaxRetries = 2
)

// ErrMissingAPIKey is returned when no API key is configured for a provider.
var ErrMissingAPIKey = errors.New("missing api key")

// Client sends chat completions through an SDK client bound to one endpoint.
type Client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger

	sdk sdk.Client
}

type Option func(*Client)

// WithBaseURL overrides the endpoint root (without /chat/completions).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIKey sets the key instead of reading it from the environment.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets how many times a failed request is retried by the SDK.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger used to report token usage.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the named provider.
// The key defaults to the first non-empty variable in keyEnvs; an empty key fails with ErrMissingAPIKey.
func New(name, baseURL string, keyEnvs []string, opts ...Option) (*Client, error) {
	c := &Client{
		name:       name,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		maxRetries: DefaultMaxRetries,
		logger:     logging.NewNop(),
	}
	for _, env := range keyEnvs {
		if v := os.Getenv(env); v != "" {
			c.apiKey = v
			break
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%s: %w (set %s)", name, ErrMissingAPIKey, keyEnvs[0])
	}

	c.sdk = sdk.NewClient(
		option.WithAPIKey(c.apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(c.maxRetries),
	)
	return c, nil
}

// NewOpenAI creates the "openai" provider.
func NewOpenAI(opts ...Option) (*Client, error) {
	return New("openai", OpenAIBaseURL, []string{OpenAIKeyEnv}, opts...)
}

// NewGemini creates the "gemini" provider.
func NewGemini(opts ...Option) (*Client, error) {
	return New("gemini", GeminiBaseURL, []string{GeminiKeyEnv, GeminiLegacyKeyEnv}, opts...)
}

// Name returns the provider name the client registers under.
func (c *Client) Name() string {
	return c.name
}

func newParams(req domain.GenerationRequest) sdk.ChatCompletionNewParams {
	cfg := req.Config
	msgs := req.Prompt.Messages()

	params := sdk.ChatCompletionNewParams{
		Model:       cfg.Model,
		Messages:    make([]sdk.ChatCompletionMessageParamUnion, 0, len(msgs)),
		Temperature: sdk.Float(cfg.Sampling.Temperature),
		TopP:        sdk.Float(cfg.Sampling.TopP),
	}
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			params.Messages = append(params.Messages, sdk.SystemMessage(m.Content))
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, sdk.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, sdk.UserMessage(m.Content))
		}
	}

	if cfg.Sampling.N > 0 {
		params.N = sdk.Int(int64(cfg.Sampling.N))
	}
	if cfg.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(cfg.MaxTokens))
	}
	if len(cfg.Stop) > 0 {
		params.Stop = sdk.ChatCompletionNewParamsStopUnion{OfStringArray: cfg.Stop}
	}
	if cfg.PresencePenalty != 0 {
		params.PresencePenalty = sdk.Float(cfg.PresencePenalty)
	}
	if cfg.FrequencyPenalty != 0 {
		params.FrequencyPenalty = sdk.Float(cfg.FrequencyPenalty)
	}
	if cfg.User != "" {
		params.User = sdk.String(cfg.User)
	}
	if len(cfg.LogitBias) > 0 {
		params.LogitBias = make(map[string]int64, len(cfg.LogitBias))
		for token, bias := range cfg.LogitBias {
			params.LogitBias[token] = int64(bias)
		}
	}
	return params
}

// Generate sends the assembled prompt and returns the first choice.
// A "base_url" string in the step's provider options overrides the client endpoint.
func (c *Client) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	var reqOpts []option.RequestOption
	if u, ok := req.Config.ProviderOptions["base_url"].(string); ok && u != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(u))
	}

	resp, err := c.sdk.Chat.Completions.New(ctx, newParams(req), reqOpts...)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.RawJSON()
			}
			return domain.Generation{}, fmt.Errorf("%s returned %d: %s", c.name, apiErr.StatusCode, msg)
		}
		return domain.Generation{}, fmt.Errorf("%s request: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Generation{}, errors.New("empty choices in response")
	}

	usage := domain.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	c.logger.Debug("generation usage",
		"provider", c.name,
		"step", req.Step,
		"model", req.Config.Model,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
	)

	return domain.Generation{
		Text:  resp.Choices[0].Message.Content,
		Usage: usage,
	}, nil
}
