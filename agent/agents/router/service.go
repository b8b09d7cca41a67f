package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	analyticsx "github.com/frontdeskhq/frontdesk/agent/analytics"
	auditx "github.com/frontdeskhq/frontdesk/agent/audit"
	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	nodex "github.com/frontdeskhq/frontdesk/agent/nodes/router"
	specialistx "github.com/frontdeskhq/frontdesk/agent/specialist"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
	"github.com/frontdeskhq/frontdesk/agent/summary"
)

var (
	ErrInvalidMessage      = nodex.ErrInvalidMessage
	ErrInvalidConversation = nodex.ErrInvalidConversation
	ErrRetriesExhausted    = errors.New("routing retries exhausted")
)

type Config struct {
	RepresentativeID           string        `envconfig:"REPRESENTATIVE_ID" split_words:"true" default:"maria"`
	HandoffConfidenceThreshold float64       `envconfig:"HANDOFF_CONFIDENCE_THRESHOLD" split_words:"true" default:"0.75"`
	MaxRouteRetries            int           `envconfig:"MAX_ROUTE_RETRIES" split_words:"true" default:"3"`
	ClassifyTimeout            time.Duration `envconfig:"CLASSIFY_TIMEOUT" split_words:"true" default:"10s"`
	IdleTimeout                time.Duration `envconfig:"IDLE_TIMEOUT" split_words:"true" default:"30m"`
	ReaperInterval             time.Duration `envconfig:"REAPER_INTERVAL" split_words:"true" default:"1m"`
	SummaryMaxTurns            int           `envconfig:"SUMMARY_MAX_TURNS" split_words:"true" default:"12"`
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.RepresentativeID) == "" {
		c.RepresentativeID = "maria"
	}
	if c.HandoffConfidenceThreshold <= 0 {
		c.HandoffConfidenceThreshold = 0.75
	}
	if c.MaxRouteRetries <= 0 {
		c.MaxRouteRetries = 3
	}
	if c.ClassifyTimeout <= 0 {
		c.ClassifyTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Minute
	}
	if c.ReaperInterval <= 0 {
		c.ReaperInterval = time.Minute
	}
	if c.SummaryMaxTurns <= 0 {
		c.SummaryMaxTurns = 12
	}
	return c
}

// Router owns the routing state machine for inbound messages: it loads or
// creates the conversation, classifies intent, decides ownership against the
// specialist registry, and persists the result through optimistic concurrency.
type Router struct {
	store      statex.Store
	classifier contractx.IntentClassifier
	registry   specialistx.Registry
	summarizer contractx.Summarizer
	sink       analyticsx.Sink
	auditLog   auditx.Log

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	cfg Config
	now func() time.Time
}

func New(
	store statex.Store,
	classifier contractx.IntentClassifier,
	registry specialistx.Registry,
	summarizer contractx.Summarizer,
	sink analyticsx.Sink,
	auditLog auditx.Log,
	cfg Config,
) (*Router, error) {
	if store == nil {
		return nil, errors.New("conversation store is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	if registry == nil {
		return nil, errors.New("specialist registry is required")
	}
	if summarizer == nil {
		summarizer = summary.NewTruncatingSummarizer(0)
	}
	if sink == nil {
		sink = analyticsx.NopSink{}
	}
	if auditLog == nil {
		auditLog = auditx.NopLog{}
	}

	cfg = cfg.withDefaults()
	if _, ok := registry.Get(cfg.RepresentativeID); !ok {
		return nil, fmt.Errorf("representative %q is not in the registry", cfg.RepresentativeID)
	}

	r := &Router{
		store:      store,
		classifier: classifier,
		registry:   registry,
		summarizer: summarizer,
		sink:       sink,
		auditLog:   auditLog,
		cfg:        cfg,
		now:        time.Now,
	}

	graphRunner, err := r.compileRouteMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Route handles one inbound message. A version conflict means another writer
// landed first; the whole pipeline re-runs against the fresh state, up to
// MaxRouteRetries attempts. Classification is side-effect free, so the re-run
// is safe.
func (r *Router) Route(ctx context.Context, conversationID string, text string) (contractx.RoutingDecision, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxRouteRetries; attempt++ {
		out, err := r.graphRunner.Invoke(ctx, nodex.GraphInput{
			ConversationID: conversationID,
			Text:           text,
		})
		if err == nil {
			return out.Decision, nil
		}
		if !errors.Is(err, statex.ErrVersionConflict) {
			return contractx.RoutingDecision{}, err
		}
		lastErr = err
		log.Debug().
			Str("conversation_id", conversationID).
			Int("attempt", attempt+1).
			Msg("version conflict, rerouting against fresh state")
	}
	return contractx.RoutingDecision{}, fmt.Errorf("%w after %d attempts: %v",
		ErrRetriesExhausted, r.cfg.MaxRouteRetries, lastErr)
}

// CloseConversation terminally closes an open conversation, releasing the
// owner's capacity slot. Closing a CLOSED or EXPIRED conversation fails with
// state.ErrInvalidState.
func (r *Router) CloseConversation(ctx context.Context, conversationID string) error {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxRouteRetries; attempt++ {
		conv, err := r.store.Get(ctx, conversationID)
		if err != nil {
			return err
		}

		expected := conv.Version
		if err := conv.Close(r.now()); err != nil {
			return err
		}

		if err := r.store.CompareAndSwap(ctx, expected, conv); err != nil {
			if errors.Is(err, statex.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return err
		}

		if conv.Owner != "" {
			r.registry.Release(conv.Owner)
		}
		r.sink.Record(ctx, analyticsx.NewEvent(analyticsx.KindConversationClosed, map[string]any{
			"conversation_id": conversationID,
			"owner":           conv.Owner,
		}))
		return nil
	}
	return fmt.Errorf("%w after %d attempts: %v",
		ErrRetriesExhausted, r.cfg.MaxRouteRetries, lastErr)
}

// Handoffs returns the audit trail for one conversation.
func (r *Router) Handoffs(ctx context.Context, conversationID string) ([]statex.HandoffEvent, error) {
	return r.auditLog.List(ctx, conversationID)
}
