package routernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	analyticsx "github.com/frontdeskhq/frontdesk/agent/analytics"
	auditx "github.com/frontdeskhq/frontdesk/agent/audit"
	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
)

// RecordOutcome emits analytics for the persisted decision and mirrors the
// handoff event into the audit log. It runs after the CAS so retried attempts
// never double-report, and it never fails the routing call.
func RecordOutcome(
	ctx context.Context,
	in *GraphState,
	sink analyticsx.Sink,
	auditLog auditx.Log,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	sink.Record(ctx, analyticsx.NewEvent(analyticsx.KindRoutingDecision, in.Decision))

	if in.HandoffEvent != nil {
		sink.Record(ctx, analyticsx.NewEvent(analyticsx.KindHandoff, *in.HandoffEvent))
		if err := auditLog.Append(ctx, *in.HandoffEvent); err != nil {
			log.Warn().
				Err(err).
				Str("conversation_id", in.ConversationID).
				Int64("seq", in.HandoffEvent.Seq).
				Msg("handoff audit append failed")
		}
	}

	if in.Degraded {
		sink.Record(ctx, analyticsx.NewEvent(analyticsx.KindDegradedClassification, map[string]any{
			"conversation_id": in.ConversationID,
			"owner":           in.Decision.Owner,
		}))
	}

	if in.Decision.Overflow {
		sink.Record(ctx, analyticsx.NewEvent(analyticsx.KindCapacityOverflow, map[string]any{
			"conversation_id": in.ConversationID,
			"department":      in.OverflowLabel,
			"owner":           in.Decision.Owner,
		}))
	}

	return in, nil
}
