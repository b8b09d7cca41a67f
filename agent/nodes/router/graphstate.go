package routernode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

var (
	ErrInvalidMessage      = errors.New("message is empty")
	ErrInvalidConversation = statex.ErrInvalidConversation
)

type GraphInput struct {
	ConversationID string
	Text           string
}

type GraphOutput struct {
	Decision contractx.RoutingDecision
}

// GraphState flows through the routing pipeline for one inbound message.
type GraphState struct {
	ConversationID string
	Text           string
	Now            time.Time

	Conv          *statex.Conversation
	LoadedVersion int64
	Created       bool

	Intents  []contractx.Intent
	Degraded bool

	Decision      contractx.RoutingDecision
	HandoffEvent  *statex.HandoffEvent
	OverflowLabel string

	// Reservation bookkeeping: ReservedOwner is rolled back when the CAS
	// fails, ReleaseOnSuccess is released only after it succeeds.
	ReservedOwner    string
	ReleaseOnSuccess string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	conversationID := strings.TrimSpace(in.ConversationID)
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ConversationID: conversationID,
		Text:           text,
		Now:            nowFn().UTC(),
	}, nil
}

func toTranscript(turns []statex.Turn) []contractx.TranscriptTurn {
	out := make([]contractx.TranscriptTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, contractx.TranscriptTurn{
			Role:  t.Role,
			Agent: t.Agent,
			Text:  t.Text,
		})
	}
	return out
}

// contextInt reads a numeric context value, tolerating the float64 a JSON
// round trip produces.
func contextInt(conv *statex.Conversation, key string) int {
	if conv == nil || conv.Context == nil {
		return 0
	}
	switch v := conv.Context[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// contextStrings reads a string-slice context value, tolerating []any from a
// JSON round trip.
func contextStrings(conv *statex.Conversation, key string) []string {
	if conv == nil || conv.Context == nil {
		return nil
	}
	switch v := conv.Context[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
