package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Kind string

const (
	KindRoutingDecision        Kind = "routing_decision"
	KindHandoff                Kind = "handoff"
	KindDegradedClassification Kind = "degraded_classification"
	KindCapacityOverflow       Kind = "capacity_overflow"
	KindConversationClosed     Kind = "conversation_closed"
	KindConversationExpired    Kind = "conversation_expired"
)

type Meta struct {
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`
}

// Event is the envelope every sink backend receives. Data is a plain
// structured record (RoutingDecision, HandoffEvent, ...).
type Event struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

func NewEvent(kind Kind, data any) Event {
	return Event{
		Meta: Meta{
			ID:   uuid.NewString(),
			Kind: kind,
			At:   time.Now().UTC(),
		},
		Data: data,
	}
}

// Sink records events. At-least-once is acceptable; the router never blocks
// or fails a routing decision on a sink, which the AsyncSink wrapper
// guarantees regardless of backend behavior.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

type NopSink struct{}

func (NopSink) Record(context.Context, Event) {}

// Backend is a delivery target that may be slow or fail. AsyncSink adapts a
// Backend into a Sink.
type Backend interface {
	Deliver(ctx context.Context, ev Event) error
}

// AsyncSink decouples recording from delivery: Record never blocks, a full
// buffer drops the event with a warning, and backend errors are swallowed
// after logging. Record stays a safe no-op after Close, so late writers
// (a reaper sweep racing shutdown) cannot panic the process.
type AsyncSink struct {
	backend Backend

	mu     sync.Mutex
	ch     chan Event
	closed bool

	wg sync.WaitGroup
}

var _ Sink = (*AsyncSink)(nil)

func NewAsyncSink(backend Backend, buffer int) *AsyncSink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &AsyncSink{
		backend: backend,
		ch:      make(chan Event, buffer),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncSink) Record(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Warn().
			Str("kind", string(ev.Meta.Kind)).
			Str("event_id", ev.Meta.ID).
			Msg("analytics sink closed, dropping event")
		return
	}

	select {
	case s.ch <- ev:
	default:
		log.Warn().
			Str("kind", string(ev.Meta.Kind)).
			Str("event_id", ev.Meta.ID).
			Msg("analytics buffer full, dropping event")
	}
}

// Close stops accepting events and drains the buffer. Safe to call more than
// once; events recorded after Close are dropped, never a panic.
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *AsyncSink) run() {
	defer s.wg.Done()
	for ev := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.backend.Deliver(ctx, ev); err != nil {
			log.Warn().
				Err(err).
				Str("kind", string(ev.Meta.Kind)).
				Str("event_id", ev.Meta.ID).
				Msg("analytics delivery failed")
		}
		cancel()
	}
}
