// Package process implements ports.Generator by running a local program.
//
// The program reads the prompt on stdin and prints the generated text on
// stdout. Step settings are passed as CASCADE_* environment variables, never
// as command line arguments.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/cascade/pkg/domain"
)

// WaitDelay bounds how long output pipes are drained after the process is killed.
const WaitDelay = 500 * time.Millisecond

// Request is the stdin document of FormatJSON commands.
type Request struct {
	Step        string           `json:"step"`
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
	Stop        []string         `json:"stop,omitempty"`
}

// Generator runs a declared command once per generation.
type Generator struct {
	command Command
	baseDir string
}

// Option configures the generator.
type Option func(*Generator)

// WithBaseDir sets the working directory of the process.
func WithBaseDir(dir string) Option {
	return func(g *Generator) {
		g.baseDir = dir
	}
}

// New creates a generator for the given command.
func New(c Command, opts ...Option) *Generator {
	g := &Generator{command: c}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the provider name the command is declared under.
func (g *Generator) Name() string {
	return g.command.Name
}

// Generate runs the command and returns its trimmed stdout.
// A non-zero exit is an error carrying the process stderr.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	stdin, err := g.input(req)
	if err != nil {
		return domain.Generation{}, err
	}

	cmd := exec.CommandContext(ctx, g.command.Command, g.command.Args...)
	cmd.Dir = g.baseDir
	cmd.WaitDelay = WaitDelay
	cmd.Env = append(cmd.Environ(), environment(g.command, req)...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Generation{}, ctxErr
		}
		return domain.Generation{}, fmt.Errorf("%s: execution failed: %w: %s",
			g.command.Name, err, strings.TrimSpace(stderr.String()))
	}

	return domain.Generation{Text: strings.TrimSpace(stdout.String())}, nil
}

func (g *Generator) input(req domain.GenerationRequest) ([]byte, error) {
	if g.command.Format != FormatJSON {
		return []byte(req.Prompt.Instruction), nil
	}
	data, err := json.Marshal(Request{
		Step:        req.Step,
		Model:       req.Config.Model,
		Messages:    req.Prompt.Messages(),
		MaxTokens:   req.Config.MaxTokens,
		Temperature: req.Config.Sampling.Temperature,
		Stop:        req.Config.Stop,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

func environment(c Command, req domain.GenerationRequest) []string {
	env := make([]string, 0, len(c.Environment)+5)
	for k, v := range c.Environment {
		env = append(env, k+"="+v)
	}
	return append(env,
		"CASCADE_STEP="+req.Step,
		"CASCADE_MODEL="+req.Config.Model,
		"CASCADE_SYSTEM="+req.Prompt.System,
		"CASCADE_MAX_TOKENS="+strconv.Itoa(req.Config.MaxTokens),
		"CASCADE_TEMPERATURE="+strconv.FormatFloat(req.Config.Sampling.Temperature, 'f', -1, 64),
	)
}
