package runtime

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedResponse is returned when a code block was required but none was found.
var ErrMalformedResponse = errors.New("malformed response: no fenced code block")

var fencedBlock = regexp.MustCompile("(?s)```(?:\\w+)?\\n(.*?)```")

// ExtractCodeBlock returns the trimmed body of the first fenced code block in text.
func ExtractCodeBlock(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
