package audit

import (
	"context"
	"sort"
	"sync"

	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

// Log is the append-only mirror of per-conversation handoff events, the audit
// trail fed to reporting. Events are never mutated or deleted.
type Log interface {
	Append(ctx context.Context, ev statex.HandoffEvent) error
	List(ctx context.Context, conversationID string) ([]statex.HandoffEvent, error)
}

type NopLog struct{}

func (NopLog) Append(context.Context, statex.HandoffEvent) error { return nil }

func (NopLog) List(context.Context, string) ([]statex.HandoffEvent, error) { return nil, nil }

// MemoryLog keeps the trail in process, for tests and single-node setups.
type MemoryLog struct {
	mu     sync.RWMutex
	events map[string][]statex.HandoffEvent
}

var _ Log = (*MemoryLog)(nil)

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		events: make(map[string][]statex.HandoffEvent),
	}
}

func (l *MemoryLog) Append(ctx context.Context, ev statex.HandoffEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Replays after a CAS retry may re-append the same seq; keep the first.
	for _, existing := range l.events[ev.ConversationID] {
		if existing.Seq == ev.Seq {
			return nil
		}
	}
	l.events[ev.ConversationID] = append(l.events[ev.ConversationID], ev)
	return nil
}

func (l *MemoryLog) List(ctx context.Context, conversationID string) ([]statex.HandoffEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := append([]statex.HandoffEvent(nil), l.events[conversationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
