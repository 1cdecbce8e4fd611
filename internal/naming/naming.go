// Package naming derives output file names for step results.
package naming

import (
	"path/filepath"
	"strings"

	"github.com/aretw0/cascade/pkg/domain"
)

// NameFor returns the output file name of a step invocation.
//
// Precedence: an explicit output_file, then the stem of the triggering input
// plus output_file_suffix and ".txt", then the step name plus ".txt".
func NameFor(step, inputPath string, cfg domain.StepConfig) string {
	switch cfg.NamingRule() {
	case domain.NamingExplicit:
		return cfg.OutputFile
	case domain.NamingSuffix:
		return Stem(inputPath) + cfg.OutputFileSuffix + domain.OutputExtension
	default:
		return step + domain.OutputExtension
	}
}

// Stem returns the base name of path without its final extension.
func Stem(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
