package bot

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Pre-compiled regexes to avoid runtime compilation per project.
var (
	htmlTagRe        = regexp.MustCompile(`(?s)<[a-zA-Z/][^>]*>`)
	excessiveLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Normalizer converts project descriptions to plain markdown before they
// reach a prompt. Listings frequently arrive with embedded HTML which
// inflates token counts and confuses match decisions.
type Normalizer struct {
	converter *md.Converter
}

// NewNormalizer creates a description normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		converter: md.NewConverter("", true, nil),
	}
}

// Normalize returns the description as trimmed markdown. Plain-text input
// passes through unchanged; conversion failures fall back to the input.
func (n *Normalizer) Normalize(description string) string {
	if !htmlTagRe.MatchString(description) {
		return strings.TrimSpace(description)
	}

	markdown, err := n.converter.ConvertString(description)
	if err != nil {
		return strings.TrimSpace(description)
	}

	markdown = excessiveLinesRe.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}
