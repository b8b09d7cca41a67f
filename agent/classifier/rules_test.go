package classifier

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

func TestRuleClassifierFirstMatchWins(t *testing.T) {
	t.Parallel()

	c, err := NewRuleClassifier([]Rule{
		{Condition: `message.contains("crash")`, Label: contractx.DepartmentTechnicalSupport, Confidence: 0.9},
		{Condition: `message.contains("price")`, Label: contractx.DepartmentSalesInquiry, Confidence: 0.85},
	})
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}

	intents, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Message: "the price page made the app CRASH",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(intents) != 1 || intents[0].Label != contractx.DepartmentTechnicalSupport {
		t.Fatalf("expected technical_support, got %+v", intents)
	}
	if intents[0].Confidence != 0.9 {
		t.Fatalf("expected confidence 0.9, got %v", intents[0].Confidence)
	}
}

func TestRuleClassifierCaseInsensitive(t *testing.T) {
	t.Parallel()

	c, err := NewRuleClassifier(DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}

	intents, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Message: "Please SCHEDULE a Meeting",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if intents[0].Label != contractx.DepartmentScheduling {
		t.Fatalf("expected scheduling, got %+v", intents)
	}
}

func TestRuleClassifierNoMatch(t *testing.T) {
	t.Parallel()

	c, err := NewRuleClassifier(DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}

	_, err = c.Classify(context.Background(), contractx.ClassifyRequest{
		Message: "just saying hi",
	})
	if !errors.Is(err, ErrNoRuleMatch) {
		t.Fatalf("expected ErrNoRuleMatch, got %v", err)
	}
}

func TestNewRuleClassifierValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		rule Rule
	}{
		{"empty condition", Rule{Condition: "  ", Label: "x", Confidence: 0.5}},
		{"empty label", Rule{Condition: `message.contains("a")`, Label: "", Confidence: 0.5}},
		{"confidence out of range", Rule{Condition: `message.contains("a")`, Label: "x", Confidence: 1.5}},
		{"non-boolean condition", Rule{Condition: `message + "x"`, Label: "x", Confidence: 0.5}},
		{"bad syntax", Rule{Condition: `message.contains(`, Label: "x", Confidence: 0.5}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRuleClassifier([]Rule{tc.rule}); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestRuleClassifierUsesRecentContext(t *testing.T) {
	t.Parallel()

	c, err := NewRuleClassifier([]Rule{
		{Condition: `recent_context.contains("invoice")`, Label: contractx.DepartmentAccountSupport, Confidence: 0.8},
	})
	if err != nil {
		t.Fatalf("NewRuleClassifier() error = %v", err)
	}

	intents, err := c.Classify(context.Background(), contractx.ClassifyRequest{
		Message:       "any update?",
		RecentContext: "user: where is my INVOICE",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if intents[0].Label != contractx.DepartmentAccountSupport {
		t.Fatalf("expected account_support, got %+v", intents)
	}
}
