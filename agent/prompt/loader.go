package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// RenderClassifier renders the classifier system prompt for the given
// department labels. The embed is compile-time; rendering is cheap and safe to
// call concurrently.
func RenderClassifier(departments []string) (string, error) {
	out, err := raymond.Render(classifierRaw, map[string]interface{}{
		"departments": departments,
	})
	if err != nil {
		return "", fmt.Errorf("render classifier prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// RenderSummary renders the handoff summarizer system prompt.
func RenderSummary(maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	out, err := raymond.Render(summaryRaw, map[string]interface{}{
		"max_sentences": maxSentences,
	})
	if err != nil {
		return "", fmt.Errorf("render summary prompt: %w", err)
	}
	return strings.TrimSpace(out), nil
}
