package state

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("conversation not found")
	ErrAlreadyExists   = errors.New("conversation already exists")
	ErrVersionConflict = errors.New("conversation version conflict")
)

// Store is the persistence contract used by the router. All mutation goes
// through CompareAndSwap so concurrent writers to the same conversation never
// silently clobber each other; a conflict forces the caller to reload and
// retry. A successful CAS is immediately visible to a subsequent Get from the
// same caller. No ordering is guaranteed across different conversations.
type Store interface {
	// Get returns a private copy of the conversation, or ErrNotFound.
	Get(ctx context.Context, conversationID string) (*Conversation, error)

	// Create stores a fresh conversation at version 1, or fails with
	// ErrAlreadyExists.
	Create(ctx context.Context, conversationID string, now time.Time) (*Conversation, error)

	// CompareAndSwap persists the mutated conversation when the stored
	// version still equals expectedVersion, bumping the version by one.
	// Fails with ErrVersionConflict otherwise.
	CompareAndSwap(ctx context.Context, expectedVersion int64, conv *Conversation) error

	// ListIdle returns IDs of open conversations whose last activity is
	// before the given instant. Used by the reaper; advisory only.
	ListIdle(ctx context.Context, before time.Time) ([]string, error)
}
