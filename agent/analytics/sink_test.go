package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureBackend struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (b *captureBackend) Deliver(ctx context.Context, ev Event) error {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return b.err
}

func (b *captureBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func TestAsyncSinkDeliversAll(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{}
	sink := NewAsyncSink(backend, 16)

	for i := 0; i < 10; i++ {
		sink.Record(context.Background(), NewEvent(KindRoutingDecision, map[string]any{"n": i}))
	}
	sink.Close()

	if got := backend.count(); got != 10 {
		t.Fatalf("expected 10 delivered events, got %d", got)
	}
}

func TestAsyncSinkNeverBlocks(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{block: make(chan struct{})}
	sink := NewAsyncSink(backend, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more events than the buffer holds while delivery is stuck.
		for i := 0; i < 100; i++ {
			sink.Record(context.Background(), NewEvent(KindHandoff, nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a stuck backend")
	}

	close(backend.block)
	sink.Close()
}

func TestAsyncSinkSwallowsBackendErrors(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{err: errors.New("broker down")}
	sink := NewAsyncSink(backend, 4)

	sink.Record(context.Background(), NewEvent(KindCapacityOverflow, nil))
	sink.Close()

	if got := backend.count(); got != 1 {
		t.Fatalf("expected the event to reach the backend, got %d", got)
	}
}

func TestAsyncSinkRecordAfterCloseIsNoOp(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{}
	sink := NewAsyncSink(backend, 4)

	sink.Record(context.Background(), NewEvent(KindRoutingDecision, nil))
	sink.Close()

	// A late writer racing shutdown must be dropped, not panic the process.
	sink.Record(context.Background(), NewEvent(KindConversationExpired, nil))
	sink.Close()

	if got := backend.count(); got != 1 {
		t.Fatalf("expected only the pre-close event delivered, got %d", got)
	}
}

func TestAsyncSinkConcurrentRecordAndClose(t *testing.T) {
	t.Parallel()

	backend := &captureBackend{}
	sink := NewAsyncSink(backend, 8)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sink.Record(context.Background(), NewEvent(KindHandoff, nil))
			}
		}()
	}
	sink.Close()
	wg.Wait()
}

func TestNewEventMeta(t *testing.T) {
	t.Parallel()

	ev := NewEvent(KindConversationClosed, map[string]any{"conversation_id": "c1"})
	if ev.Meta.ID == "" {
		t.Fatal("expected a generated event id")
	}
	if ev.Meta.Kind != KindConversationClosed {
		t.Fatalf("unexpected kind %q", ev.Meta.Kind)
	}
	if ev.Meta.At.IsZero() {
		t.Fatal("expected a timestamp")
	}
}
