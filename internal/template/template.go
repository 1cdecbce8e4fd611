// Package template renders step instruction templates.
//
// Markers have the form {{ name }}. Whitespace inside the braces is ignored and
// a name is any run of characters other than whitespace and braces. Any other
// text, including braces that do not form a marker, is copied through unchanged.
package template

import (
	"regexp"
	"strings"

	"github.com/aretw0/cascade/pkg/domain"
)

var (
	marker      = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)
	namePattern = regexp.MustCompile(`^[^{}\s]+$`)
)

// IsName reports whether s can be referenced by a marker.
func IsName(s string) bool {
	return namePattern.MatchString(s)
}

// Lookup resolves a marker name to its value.
type Lookup func(name string) (string, bool)

// Render substitutes every marker in text with the value returned by lookup.
// Values are inserted byte for byte and are not scanned for further markers.
// If any marker cannot be resolved, Render returns a *domain.RenderError listing
// every missing name once, in order of first appearance.
func Render(text string, lookup Lookup) (string, error) {
	var missing []string
	seen := map[string]bool{}

	matches := marker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		name := text[m[2]:m[3]]
		sb.WriteString(text[last:m[0]])
		last = m[1]

		value, ok := lookup(name)
		if !ok {
			if !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
			continue
		}
		sb.WriteString(value)
	}
	sb.WriteString(text[last:])

	if len(missing) > 0 {
		return "", &domain.RenderError{Missing: missing}
	}
	return sb.String(), nil
}

// References returns the distinct marker names in text, in order of first appearance.
func References(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range marker.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// FromContext returns a Lookup over a RunContext, with the reserved
// input_content key bound to input.
func FromContext(rc *domain.RunContext, input string) Lookup {
	return func(name string) (string, bool) {
		if name == domain.InputContentKey {
			return input, true
		}
		return rc.Get(name)
	}
}

// FromMap returns a Lookup over a plain map.
func FromMap(values map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}
