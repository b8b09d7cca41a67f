package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store used in tests and single-node setups.
// CAS is linearized by the mutex; copies cross the boundary in both
// directions so callers never alias stored state.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*Conversation
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convs: make(map[string]*Conversation),
	}
}

func (s *MemoryStore) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	return conv.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, conversationID string, now time.Time) (*Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidConversation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[conversationID]; ok {
		return nil, ErrAlreadyExists
	}

	conv := NewConversation(conversationID, now)
	conv.Version = 1
	s.convs[conversationID] = conv.Clone()
	return conv, nil
}

func (s *MemoryStore) CompareAndSwap(ctx context.Context, expectedVersion int64, conv *Conversation) error {
	if conv == nil {
		return ErrNilConversation
	}
	if conv.ConversationID == "" {
		return ErrInvalidConversation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.convs[conv.ConversationID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}

	conv.Version = expectedVersion + 1
	s.convs[conv.ConversationID] = conv.Clone()
	return nil
}

func (s *MemoryStore) ListIdle(ctx context.Context, before time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, conv := range s.convs {
		if conv.IsOpen() && conv.LastActivityAt.Before(before) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
