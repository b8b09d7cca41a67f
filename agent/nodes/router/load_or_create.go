package routernode

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/frontdeskhq/frontdesk/agent/contract"
	statex "github.com/frontdeskhq/frontdesk/agent/state"
)

func LoadOrCreateConversation(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, created, err := loadOrCreateConversation(ctx, store, in.ConversationID, in.Now)
	if err != nil {
		return nil, err
	}
	if !conv.IsOpen() {
		return nil, fmt.Errorf("%w: conversation %s status=%s",
			statex.ErrInvalidState, conv.ConversationID, conv.Status)
	}

	in.Conv = conv
	in.Created = created
	in.LoadedVersion = conv.Version
	return in, nil
}

func loadOrCreateConversation(
	ctx context.Context,
	store statex.Store,
	conversationID string,
	now time.Time,
) (*statex.Conversation, bool, error) {
	conv, err := store.Get(ctx, conversationID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, statex.ErrNotFound) {
		return nil, false, err
	}

	conv, err = store.Create(ctx, conversationID, now)
	if err == nil {
		return conv, true, nil
	}
	if !errors.Is(err, statex.ErrAlreadyExists) {
		return nil, false, err
	}

	// Lost the create race; the other writer's copy is authoritative.
	conv, err = store.Get(ctx, conversationID)
	if err != nil {
		return nil, false, err
	}
	return conv, false, nil
}
