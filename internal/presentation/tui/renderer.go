package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// AsMarkdown wraps a step output for rendering. Markdown outputs pass through;
// anything else becomes a fenced block tagged with the file extension.
func AsMarkdown(path, content string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch ext {
	case "md", "markdown":
		return content
	case "txt", "":
		if looksLikeMarkdown(content) {
			return content
		}
		ext = ""
	}
	return "```" + ext + "\n" + strings.TrimRight(content, "\n") + "\n```\n"
}

func looksLikeMarkdown(s string) bool {
	for _, marker := range []string{"# ", "```", "- ", "* ", "|"} {
		if strings.HasPrefix(strings.TrimSpace(s), marker) || strings.Contains(s, "\n"+marker) {
			return true
		}
	}
	return false
}
