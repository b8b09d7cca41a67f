package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	promptx "github.com/frontdeskhq/frontdesk/agent/prompt"
)

type llmOutput struct {
	Intents []contractx.Intent `json:"intents"`
}

// LLMClassifier asks a chat model for a ranked department list. Every failure
// mode, including malformed rankings, surfaces as
// contract.ErrClassificationUnavailable so the router can degrade uniformly.
type LLMClassifier struct {
	runner compose.Runnable[map[string]any, llmOutput]
}

var _ contractx.IntentClassifier = (*LLMClassifier)(nil)

func NewLLMClassifier(ctx context.Context, chatModel einomodel.BaseChatModel) (*LLMClassifier, error) {
	systemPrompt, err := promptx.RenderClassifier(contractx.KnownDepartments())
	if err != nil {
		return nil, err
	}

	runner, err := compileClassifierGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &LLMClassifier{runner: runner}, nil
}

func (c *LLMClassifier) Classify(ctx context.Context, req contractx.ClassifyRequest) ([]contractx.Intent, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"message":            req.Message,
		"recent_context":     req.RecentContext,
		"current_department": req.CurrentDepartment,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal classify payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": string(inputBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: classifier invoke: %v", contractx.ErrClassificationUnavailable, err)
	}

	intents, err := normalizeRanking(out.Intents)
	if err != nil {
		return nil, err
	}
	return intents, nil
}

// normalizeRanking validates the model's ranking and sorts it by descending
// confidence. An empty or out-of-range ranking is malformed output.
func normalizeRanking(raw []contractx.Intent) ([]contractx.Intent, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty ranking", contractx.ErrClassificationUnavailable)
	}

	out := make([]contractx.Intent, 0, len(raw))
	for _, in := range raw {
		label := strings.ToLower(strings.TrimSpace(in.Label))
		if label == "" {
			return nil, fmt.Errorf("%w: ranking has an empty label", contractx.ErrClassificationUnavailable)
		}
		if in.Confidence < 0 || in.Confidence > 1 {
			return nil, fmt.Errorf("%w: confidence %v outside [0,1]", contractx.ErrClassificationUnavailable, in.Confidence)
		}
		out = append(out, contractx.Intent{Label: label, Confidence: in.Confidence})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out, nil
}
