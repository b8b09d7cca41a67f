package classifier

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

// HybridClassifier tries the deterministic rules first and falls back to the
// model for everything the rules do not cover. A rule evaluation error also
// falls through to the model rather than failing the classification.
type HybridClassifier struct {
	rules    *RuleClassifier
	fallback contractx.IntentClassifier
}

var _ contractx.IntentClassifier = (*HybridClassifier)(nil)

func NewHybridClassifier(rules *RuleClassifier, fallback contractx.IntentClassifier) *HybridClassifier {
	return &HybridClassifier{rules: rules, fallback: fallback}
}

func (c *HybridClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) ([]contractx.Intent, error) {
	if c.rules != nil {
		intents, err := c.rules.Classify(ctx, req)
		if err == nil {
			return intents, nil
		}
		if !errors.Is(err, ErrNoRuleMatch) {
			log.Debug().Err(err).Msg("rule classification failed, falling back to model")
		}
	}

	if c.fallback == nil {
		return nil, ErrNoRuleMatch
	}
	return c.fallback.Classify(ctx, req)
}
