package classifier

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

type stubClassifier struct {
	intents []contractx.Intent
	err     error
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) ([]contractx.Intent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.intents, nil
}

func TestHybridPrefersRules(t *testing.T) {
	t.Parallel()

	rules, err := NewRuleClassifier(DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}
	fallback := &stubClassifier{intents: []contractx.Intent{
		{Label: contractx.DepartmentGeneral, Confidence: 0.5},
	}}

	c := NewHybridClassifier(rules, fallback)
	intents, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Message: "my password stopped working",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if intents[0].Label != contractx.DepartmentTechnicalSupport {
		t.Fatalf("expected the rule label, got %+v", intents)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback must not run when a rule matches, got %d calls", fallback.calls)
	}
}

func TestHybridFallsBackOnNoMatch(t *testing.T) {
	t.Parallel()

	rules, err := NewRuleClassifier(DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}
	fallback := &stubClassifier{intents: []contractx.Intent{
		{Label: contractx.DepartmentSalesInquiry, Confidence: 0.7},
	}}

	c := NewHybridClassifier(rules, fallback)
	intents, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Message: "I want to talk about options",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if intents[0].Label != contractx.DepartmentSalesInquiry {
		t.Fatalf("expected the fallback label, got %+v", intents)
	}
	if fallback.calls != 1 {
		t.Fatalf("expected one fallback call, got %d", fallback.calls)
	}
}

func TestHybridWithoutFallback(t *testing.T) {
	t.Parallel()

	rules, err := NewRuleClassifier(DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}

	c := NewHybridClassifier(rules, nil)
	if _, err := c.Classify(context.Background(), contractx.ClassifyRequest{Message: "hello"}); !errors.Is(err, ErrNoRuleMatch) {
		t.Fatalf("expected ErrNoRuleMatch, got %v", err)
	}
}

func TestNormalizeRanking(t *testing.T) {
	t.Parallel()

	intents, err := normalizeRanking([]contractx.Intent{
		{Label: "Sales_Inquiry ", Confidence: 0.4},
		{Label: "technical_support", Confidence: 0.9},
	})
	if err != nil {
		t.Fatalf("normalizeRanking() error = %v", err)
	}
	if intents[0].Label != "technical_support" || intents[1].Label != "sales_inquiry" {
		t.Fatalf("expected sorted lowercase labels, got %+v", intents)
	}

	if _, err := normalizeRanking(nil); !errors.Is(err, contractx.ErrClassificationUnavailable) {
		t.Fatalf("expected ErrClassificationUnavailable for empty ranking, got %v", err)
	}
	if _, err := normalizeRanking([]contractx.Intent{{Label: "x", Confidence: 1.2}}); !errors.Is(err, contractx.ErrClassificationUnavailable) {
		t.Fatalf("expected ErrClassificationUnavailable for bad confidence, got %v", err)
	}
	if _, err := normalizeRanking([]contractx.Intent{{Label: "  ", Confidence: 0.5}}); !errors.Is(err, contractx.ErrClassificationUnavailable) {
		t.Fatalf("expected ErrClassificationUnavailable for empty label, got %v", err)
	}
}
