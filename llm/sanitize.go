package llm

import (
	"regexp"
	"strings"
)

// thinkBlockPattern matches chain-of-thought delimiters that reasoning
// models emit before the answer proper.
var thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// CleanResponse strips chain-of-thought blocks and surrounding whitespace
// from a model response so callers can compare or display the answer
// directly.
func CleanResponse(content string) string {
	cleaned := thinkBlockPattern.ReplaceAllString(content, "")
	return strings.TrimSpace(cleaned)
}
