package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

// ApplyDecision mutates the loaded conversation: appends the user turn,
// records the handoff event when ownership changes, and maintains the
// well-known context keys.
func ApplyDecision(
	ctx context.Context,
	in *GraphState,
	summarizer contractx.Summarizer,
	summaryMaxTurns int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv := in.Conv
	conv.AppendTurn(statex.TurnRoleUser, "", in.Text, in.Now)
	conv.SetContext(statex.ContextKeyInteractionCount,
		contextInt(conv, statex.ContextKeyInteractionCount)+1)

	if len(in.Intents) > 0 {
		history := contextStrings(conv, statex.ContextKeyIntentHistory)
		conv.SetContext(statex.ContextKeyIntentHistory,
			append(history, in.Intents[0].Label))
	}

	if in.Decision.Handoff {
		if conv.Owner != "" && summarizer != nil {
			turns := toTranscript(conv.RecentTurns(summaryMaxTurns))
			summary, err := summarizer.Summarize(ctx, turns)
			if err != nil {
				// A missing summary must not block the transfer.
				log.Warn().
					Err(err).
					Str("conversation_id", in.ConversationID).
					Msg("handoff summary unavailable")
			} else if summary != "" {
				conv.SetContext(statex.ContextKeyHandoffSummary, summary)
			}
		}

		ev, err := conv.RecordHandoff(in.Decision.Owner, in.Decision.Department, in.Decision.Confidence, in.Now)
		if err != nil {
			return nil, err
		}
		in.HandoffEvent = &ev

		introduced := contextStrings(conv, statex.ContextKeyIntroducedAgents)
		conv.SetContext(statex.ContextKeyIntroducedAgents,
			appendUnique(introduced, in.Decision.Owner))
	}

	if in.Decision.Overflow {
		conv.SetContext(statex.ContextKeyPendingOverflow, true)
	} else if conv.Context != nil {
		delete(conv.Context, statex.ContextKeyPendingOverflow)
	}

	return in, nil
}
