package summary

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

// TruncatingSummarizer is the deterministic fallback: it renders the trailing
// turns as a compact transcript excerpt. No external calls, never fails.
type TruncatingSummarizer struct {
	MaxTurns int
	MaxRunes int
}

var _ contractx.Summarizer = (*TruncatingSummarizer)(nil)

func NewTruncatingSummarizer(maxTurns int) *TruncatingSummarizer {
	if maxTurns <= 0 {
		maxTurns = 12
	}
	return &TruncatingSummarizer{
		MaxTurns: maxTurns,
		MaxRunes: 2000,
	}
}

func (s *TruncatingSummarizer) Summarize(ctx context.Context, turns []contractx.TranscriptTurn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}
	if len(turns) > s.MaxTurns {
		turns = turns[len(turns)-s.MaxTurns:]
	}

	var b strings.Builder
	for _, t := range turns {
		speaker := t.Role
		if t.Agent != "" {
			speaker = t.Agent
		}
		fmt.Fprintf(&b, "[%s] %s\n", speaker, strings.TrimSpace(t.Text))
	}

	out := strings.TrimSpace(b.String())
	if s.MaxRunes > 0 {
		runes := []rune(out)
		if len(runes) > s.MaxRunes {
			out = string(runes[len(runes)-s.MaxRunes:])
		}
	}
	return out, nil
}
