package routernode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

const recentContextTurns = 6

// ClassifyIntent runs the classifier under its own timeout. A failure never
// aborts routing: the state is marked degraded and the conversation continues
// with its current owner.
func ClassifyIntent(
	ctx context.Context,
	in *GraphState,
	classifier contractx.IntentClassifier,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	cctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	intents, err := classifier.Classify(cctx, contractx.ClassifyRequest{
		Message:           in.Text,
		RecentContext:     recentContext(in.Conv),
		CurrentDepartment: in.Conv.Department,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("conversation_id", in.ConversationID).
			Msg("classification unavailable, continuing with current owner")
		in.Degraded = true
		in.Intents = nil
		return in, nil
	}

	in.Intents = intents
	return in, nil
}

// recentContext condenses the conversation for the classifier: the standing
// handoff summary, if any, plus the trailing turns.
func recentContext(conv *statex.Conversation) string {
	if conv == nil {
		return ""
	}

	var b strings.Builder
	if summary, ok := conv.ContextString(statex.ContextKeyHandoffSummary); ok && summary != "" {
		b.WriteString("summary: ")
		b.WriteString(summary)
	}
	for _, turn := range conv.RecentTurns(recentContextTurns) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		speaker := turn.Role
		if turn.Agent != "" {
			speaker = turn.Agent
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}
