package summary

import (
	"context"
	"strings"
	"testing"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

func TestTruncatingSummarizerFormatsSpeakers(t *testing.T) {
	t.Parallel()

	s := NewTruncatingSummarizer(0)
	out, err := s.Summarize(context.Background(), []contractx.TranscriptTurn{
		{Role: "user", Text: "my app crashed"},
		{Role: "agent", Agent: "alex", Text: "which version are you on?"},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if !strings.Contains(out, "[user] my app crashed") {
		t.Fatalf("missing user line: %q", out)
	}
	if !strings.Contains(out, "[alex] which version are you on?") {
		t.Fatalf("agent name should replace the role: %q", out)
	}
}

func TestTruncatingSummarizerKeepsTrailingTurns(t *testing.T) {
	t.Parallel()

	s := NewTruncatingSummarizer(2)
	out, err := s.Summarize(context.Background(), []contractx.TranscriptTurn{
		{Role: "user", Text: "first"},
		{Role: "user", Text: "second"},
		{Role: "user", Text: "third"},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if strings.Contains(out, "first") {
		t.Fatalf("expected the oldest turn dropped: %q", out)
	}
	if !strings.Contains(out, "second") || !strings.Contains(out, "third") {
		t.Fatalf("expected the trailing turns kept: %q", out)
	}
}

func TestTruncatingSummarizerEmptyInput(t *testing.T) {
	t.Parallel()

	s := NewTruncatingSummarizer(0)
	out, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty summary, got %q", out)
	}
}

func TestTruncatingSummarizerCapsRunes(t *testing.T) {
	t.Parallel()

	s := &TruncatingSummarizer{MaxTurns: 10, MaxRunes: 20}
	out, err := s.Summarize(context.Background(), []contractx.TranscriptTurn{
		{Role: "user", Text: strings.Repeat("x", 100)},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got := len([]rune(out)); got > 20 {
		t.Fatalf("expected at most 20 runes, got %d", got)
	}
}
