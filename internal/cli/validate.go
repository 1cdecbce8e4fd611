package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/aretw0/cascade/pkg/domain"
)

// Validate loads the project, checks the flow graph and resolves every step.
// Steps whose provider has no registered adapter are reported as warnings,
// since a key may be present where the flow actually runs.
func Validate(opts Options, w io.Writer) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	stack, err := NewStack(opts, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	eng := stack.Engine
	providers := eng.Providers()
	steps := eng.Graph().Steps()

	var errs, warnings []string
	for _, step := range steps {
		cfg, err := eng.Resolve(step)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if cfg.Kind == domain.KindLLM && !slices.Contains(providers, cfg.Provider) {
			warnings = append(warnings, fmt.Sprintf("step %q: provider %q is not available (registered: %s)",
				step, cfg.Provider, strings.Join(providers, ", ")))
		}
	}

	for _, msg := range warnings {
		fmt.Fprintf(w, "! %s\n", msg)
	}
	if len(errs) > 0 {
		for _, msg := range errs {
			fmt.Fprintf(w, "✗ %s\n", msg)
		}
		return errors.New("flow configuration is invalid")
	}

	fmt.Fprintf(w, "✓ Flow is valid: %d steps, entries: %s\n", len(steps), strings.Join(eng.Graph().Entries(), ", "))
	return nil
}
