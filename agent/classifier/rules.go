package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

var ErrNoRuleMatch = errors.New("no routing rule matched")

// Rule is a deterministic routing rule: a CEL condition over the inbound
// message and, when true, the department it routes to. Rules are evaluated in
// order; the first match wins.
type Rule struct {
	Condition  string  `json:"condition" mapstructure:"condition"`
	Label      string  `json:"label" mapstructure:"label"`
	Confidence float64 `json:"confidence" mapstructure:"confidence"`
}

type compiledRule struct {
	rule    Rule
	program cel.Program
}

// RuleClassifier evaluates CEL rules without any model call. It is the fast
// path of the hybrid classifier and usable standalone in tests and offline
// setups.
type RuleClassifier struct {
	rules []compiledRule
}

var _ contractx.IntentClassifier = (*RuleClassifier)(nil)

func NewRuleClassifier(rules []Rule) (*RuleClassifier, error) {
	env, err := cel.NewEnv(
		cel.Variable("message", cel.StringType),
		cel.Variable("recent_context", cel.StringType),
		cel.Variable("current_department", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Condition) == "" {
			return nil, fmt.Errorf("%w: rule %d has no condition", contractx.ErrValidation, i)
		}
		if strings.TrimSpace(r.Label) == "" {
			return nil, fmt.Errorf("%w: rule %d has no label", contractx.ErrValidation, i)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return nil, fmt.Errorf("%w: rule %d confidence %v outside [0,1]", contractx.ErrValidation, i, r.Confidence)
		}

		ast, iss := env.Compile(r.Condition)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %d: %w", i, iss.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("%w: rule %d condition is not boolean", contractx.ErrValidation, i)
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %d: %w", i, err)
		}
		compiled = append(compiled, compiledRule{rule: r, program: prg})
	}

	return &RuleClassifier{rules: compiled}, nil
}

func (c *RuleClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) ([]contractx.Intent, error) {
	activation := map[string]any{
		"message":            strings.ToLower(req.Message),
		"recent_context":     strings.ToLower(req.RecentContext),
		"current_department": req.CurrentDepartment,
	}

	for _, cr := range c.rules {
		out, _, err := cr.program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("%w: eval rule %q: %v", contractx.ErrClassificationUnavailable, cr.rule.Condition, err)
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("%w: rule %q returned non-bool", contractx.ErrClassificationUnavailable, cr.rule.Condition)
		}
		if matched {
			return []contractx.Intent{{Label: cr.rule.Label, Confidence: cr.rule.Confidence}}, nil
		}
	}

	return nil, ErrNoRuleMatch
}

// DefaultRules covers the unambiguous keyword cases so the model is only
// consulted for the rest.
func DefaultRules() []Rule {
	return []Rule{
		{Condition: `message.contains("password") || message.contains("error") || message.contains("crash")`, Label: contractx.DepartmentTechnicalSupport, Confidence: 0.9},
		{Condition: `message.contains("invoice") || message.contains("billing") || message.contains("subscription")`, Label: contractx.DepartmentAccountSupport, Confidence: 0.85},
		{Condition: `message.contains("schedule") || message.contains("meeting") || message.contains("appointment")`, Label: contractx.DepartmentScheduling, Confidence: 0.85},
		{Condition: `message.contains("price") || message.contains("quote") || message.contains("demo")`, Label: contractx.DepartmentSalesInquiry, Confidence: 0.85},
	}
}
