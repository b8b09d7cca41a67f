package analytics

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogBackend writes events to the structured log. The default backend when no
// stream or broker is configured.
type LogBackend struct{}

var _ Backend = (*LogBackend)(nil)

func (LogBackend) Deliver(ctx context.Context, ev Event) error {
	log.Info().
		Str("event_id", ev.Meta.ID).
		Str("kind", string(ev.Meta.Kind)).
		Time("at", ev.Meta.At).
		Interface("data", ev.Data).
		Msg("analytics event")
	return nil
}
