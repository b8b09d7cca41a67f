package state

import (
	"errors"
	"fmt"
	"time"
)

// Conversation is the persistent source-of-truth for one exchange with an end
// user. Ownership changes are recorded as discrete HandoffEvents; the latest
// event's NewOwner always matches Owner.
type Conversation struct {
	// Identity
	ConversationID string `json:"conversation_id"`

	// Routing state
	Owner      string `json:"owner,omitempty"` // empty = unassigned
	Department string `json:"department,omitempty"`
	Status     Status `json:"status"`

	Transcript []Turn         `json:"transcript,omitempty"` // append-only
	Handoffs   []HandoffEvent `json:"handoffs,omitempty"`   // append-only audit trail
	Context    map[string]any `json:"context,omitempty"`    // free-form bag

	// Version is the optimistic-concurrency token; bumped by the store on
	// every successful compare-and-swap.
	Version int64 `json:"version"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusHandedOff Status = "HANDED_OFF"
	StatusClosed    Status = "CLOSED"
	StatusExpired   Status = "EXPIRED"
)

type Turn struct {
	Role  string    `json:"role"` // "user" | "agent"
	Agent string    `json:"agent,omitempty"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

const (
	TurnRoleUser  = "user"
	TurnRoleAgent = "agent"
)

// HandoffEvent is an immutable ownership-change record. Seq increases
// monotonically per conversation starting at 1.
type HandoffEvent struct {
	ConversationID string    `json:"conversation_id"`
	Seq            int64     `json:"seq"`
	PreviousOwner  string    `json:"previous_owner,omitempty"` // empty = none
	NewOwner       string    `json:"new_owner"`
	Department     string    `json:"department"`
	Confidence     float64   `json:"confidence"`
	At             time.Time `json:"at"`
}

// Well-known context keys written by the router.
const (
	ContextKeyHandoffSummary   = "handoff_summary"
	ContextKeyPendingOverflow  = "pending_overflow"
	ContextKeyIntentHistory    = "intent_history"
	ContextKeyIntroducedAgents = "introduced_agents"
	ContextKeyInteractionCount = "interaction_count"
)

var (
	ErrInvalidConversation = errors.New("conversation id is empty")
	ErrNilConversation     = errors.New("conversation is nil")
	ErrInvalidState        = errors.New("conversation is closed or expired")
	ErrOwnershipCorrupt    = errors.New("owner does not match handoff trail")
)

func NewConversation(conversationID string, now time.Time) *Conversation {
	return &Conversation{
		ConversationID: conversationID,
		Status:         StatusActive,
		Context:        make(map[string]any, 8),
		Version:        0,
		CreatedAt:      now.UTC(),
		LastActivityAt: now.UTC(),
	}
}

func (c *Conversation) Touch(now time.Time) {
	c.LastActivityAt = now.UTC()
}

// IsOpen reports whether the conversation can still accept routing decisions.
func (c *Conversation) IsOpen() bool {
	return c != nil && (c.Status == StatusActive || c.Status == StatusHandedOff)
}

func (c *Conversation) IsTerminal() bool {
	return c != nil && (c.Status == StatusClosed || c.Status == StatusExpired)
}

func (c *Conversation) EnsureContext() {
	if c.Context == nil {
		c.Context = make(map[string]any, 8)
	}
}

func (c *Conversation) SetContext(key string, val any) {
	c.EnsureContext()
	c.Context[key] = val
}

// ContextString returns the value under key when it is a string.
func (c *Conversation) ContextString(key string) (string, bool) {
	if c == nil || c.Context == nil {
		return "", false
	}
	v, ok := c.Context[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Conversation) AppendTurn(role, agent, text string, now time.Time) {
	c.Transcript = append(c.Transcript, Turn{
		Role:  role,
		Agent: agent,
		Text:  text,
		At:    now.UTC(),
	})
	c.Touch(now)
}

// RecentTurns returns up to max trailing turns.
func (c *Conversation) RecentTurns(max int) []Turn {
	if c == nil || max <= 0 || len(c.Transcript) == 0 {
		return nil
	}
	if len(c.Transcript) <= max {
		return c.Transcript
	}
	return c.Transcript[len(c.Transcript)-max:]
}

// RecordHandoff transfers ownership and appends the audit event. The initial
// assignment (no previous owner) keeps StatusActive; a transfer between agents
// moves to StatusHandedOff. Both remain routable.
func (c *Conversation) RecordHandoff(newOwner, department string, confidence float64, now time.Time) (HandoffEvent, error) {
	if c == nil {
		return HandoffEvent{}, ErrNilConversation
	}
	if !c.IsOpen() {
		return HandoffEvent{}, fmt.Errorf("%w: status=%s", ErrInvalidState, c.Status)
	}
	if newOwner == "" {
		return HandoffEvent{}, fmt.Errorf("%w: new owner is empty", ErrOwnershipCorrupt)
	}

	ev := HandoffEvent{
		ConversationID: c.ConversationID,
		Seq:            int64(len(c.Handoffs)) + 1,
		PreviousOwner:  c.Owner,
		NewOwner:       newOwner,
		Department:     department,
		Confidence:     confidence,
		At:             now.UTC(),
	}

	if c.Owner == "" {
		c.Status = StatusActive
	} else {
		c.Status = StatusHandedOff
	}
	c.Owner = newOwner
	c.Department = department
	c.Handoffs = append(c.Handoffs, ev)
	c.Touch(now)
	return ev, nil
}

// Close is terminal and unconditional for open conversations. Closing an
// already-terminal conversation fails with ErrInvalidState.
func (c *Conversation) Close(now time.Time) error {
	if c == nil {
		return ErrNilConversation
	}
	if c.IsTerminal() {
		return fmt.Errorf("%w: status=%s", ErrInvalidState, c.Status)
	}
	c.Status = StatusClosed
	c.Touch(now)
	return nil
}

// Expire marks an idle conversation EXPIRED. History stays readable.
func (c *Conversation) Expire(now time.Time) error {
	if c == nil {
		return ErrNilConversation
	}
	if c.IsTerminal() {
		return fmt.Errorf("%w: status=%s", ErrInvalidState, c.Status)
	}
	c.Status = StatusExpired
	c.Touch(now)
	return nil
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if c.ConversationID == "" {
		return ErrInvalidConversation
	}
	var prevSeq int64
	for _, ev := range c.Handoffs {
		if ev.Seq != prevSeq+1 {
			return fmt.Errorf("%w: seq %d after %d", ErrOwnershipCorrupt, ev.Seq, prevSeq)
		}
		prevSeq = ev.Seq
	}
	if n := len(c.Handoffs); n > 0 {
		if latest := c.Handoffs[n-1]; latest.NewOwner != c.Owner {
			return fmt.Errorf("%w: owner=%q latest event owner=%q", ErrOwnershipCorrupt, c.Owner, latest.NewOwner)
		}
	} else if c.Owner != "" {
		return fmt.Errorf("%w: owner=%q with empty handoff trail", ErrOwnershipCorrupt, c.Owner)
	}
	return nil
}

// Clone returns a deep copy so store callers never share mutable state.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Transcript = append([]Turn(nil), c.Transcript...)
	out.Handoffs = append([]HandoffEvent(nil), c.Handoffs...)
	if c.Context != nil {
		out.Context = make(map[string]any, len(c.Context))
		for k, v := range c.Context {
			out.Context[k] = v
		}
	}
	return &out
}
