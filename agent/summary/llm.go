package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	promptx "github.com/frontdeskhq/frontdesk/agent/prompt"
)

// LLMSummarizer condenses the transcript with a chat model so the receiving
// specialist gets prose instead of a raw excerpt. On any model failure it
// falls back to the truncating summarizer; a handoff must never fail because
// summarization did.
type LLMSummarizer struct {
	client   *openaisdk.Client
	model    string
	fallback *TruncatingSummarizer
}

var _ contractx.Summarizer = (*LLMSummarizer)(nil)

func NewLLMSummarizer(client *openaisdk.Client, model string, fallback *TruncatingSummarizer) (*LLMSummarizer, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("summarizer model is required")
	}
	if fallback == nil {
		fallback = NewTruncatingSummarizer(0)
	}
	return &LLMSummarizer{
		client:   client,
		model:    strings.TrimSpace(model),
		fallback: fallback,
	}, nil
}

func (s *LLMSummarizer) Summarize(ctx context.Context, turns []contractx.TranscriptTurn) (string, error) {
	if len(turns) == 0 {
		return "", nil
	}

	excerpt, err := s.fallback.Summarize(ctx, turns)
	if err != nil || excerpt == "" {
		return excerpt, err
	}

	systemPrompt, err := promptx.RenderSummary(5)
	if err != nil {
		return excerpt, nil
	}

	resp, err := s.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(s.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(systemPrompt),
			openaisdk.UserMessage(fmt.Sprintf("Conversation so far:\n%s", excerpt)),
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return excerpt, nil
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return excerpt, nil
	}
	return out, nil
}
