package router

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	analyticsx "github.com/frontdeskhq/frontdesk/agent/analytics"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

// StartReaper sweeps idle conversations on ReaperInterval until the context
// is cancelled.
func (r *Router) StartReaper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.cfg.ReaperInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired, err := r.ExpireIdle(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("idle sweep failed")
					continue
				}
				if expired > 0 {
					log.Info().Int("expired", expired).Msg("idle conversations expired")
				}
			}
		}
	}()
}

// ExpireIdle expires every open conversation idle past IdleTimeout, releasing
// owner slots. A version conflict on one conversation means someone just wrote
// to it, which also means it is no longer idle; it is skipped.
func (r *Router) ExpireIdle(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.cfg.IdleTimeout)
	ids, err := r.store.ListIdle(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		ok, err := r.expireOne(ctx, id, cutoff)
		if err != nil {
			log.Warn().Err(err).Str("conversation_id", id).Msg("expire failed")
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (r *Router) expireOne(ctx context.Context, conversationID string, cutoff time.Time) (bool, error) {
	conv, err := r.store.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, statex.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	// The idle listing is advisory; re-check against the live copy.
	if !conv.IsOpen() || !conv.LastActivityAt.Before(cutoff) {
		return false, nil
	}

	expected := conv.Version
	if err := conv.Expire(r.now()); err != nil {
		return false, err
	}

	if err := r.store.CompareAndSwap(ctx, expected, conv); err != nil {
		if errors.Is(err, statex.ErrVersionConflict) {
			return false, nil
		}
		return false, err
	}

	if conv.Owner != "" {
		r.registry.Release(conv.Owner)
	}
	r.sink.Record(ctx, analyticsx.NewEvent(analyticsx.KindConversationExpired, map[string]any{
		"conversation_id": conversationID,
		"owner":           conv.Owner,
	}))
	return true, nil
}
