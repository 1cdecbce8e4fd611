package naming_test

import (
	"testing"

	"github.com/aretw0/cascade/internal/naming"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNameFor(t *testing.T) {
	tests := []struct {
		name  string
		step  string
		input string
		cfg   domain.StepConfig
		want  string
	}{
		{"default", "brd", "out/doc/doc.txt", domain.StepConfig{}, "brd.txt"},
		{"suffix", "specs", "out/doc/brd.txt", domain.StepConfig{OutputFileSuffix: "_specs"}, "brd_specs.txt"},
		{"suffix from artifact", "doc", "repo/main.py", domain.StepConfig{OutputFileSuffix: "_doc"}, "main_doc.txt"},
		{"explicit", "specs", "x.txt", domain.StepConfig{OutputFile: "specs.md"}, "specs.md"},
		{"explicit wins over suffix", "specs", "x.txt", domain.StepConfig{OutputFile: "final.md", OutputFileSuffix: "_s"}, "final.md"},
		{"only last extension is stripped", "s", "a/archive.tar.gz", domain.StepConfig{OutputFileSuffix: "_x"}, "archive.tar_x.txt"},
		{"no extension", "s", "Makefile", domain.StepConfig{OutputFileSuffix: "_x"}, "Makefile_x.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := naming.NameFor(tt.step, tt.input, tt.cfg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, naming.NameFor(tt.step, tt.input, tt.cfg), "naming is deterministic")
		})
	}
}

func TestStem(t *testing.T) {
	assert.Equal(t, "doc", naming.Stem("repository/doc.md"))
	assert.Equal(t, "doc", naming.Stem("doc"))
	assert.Equal(t, "", naming.Stem(""))
}
