package history

import (
	"context"
	"sync"
)

// InMemoryStore keeps conversations in a process local map. It suits tests and
// single instance local runs; history is lost on restart and TTL is ignored.
type InMemoryStore struct {
	mu        sync.RWMutex
	convs     map[string][]Turn
	retention Retention
}

func NewInMemoryStore(retention Retention) *InMemoryStore {
	return &InMemoryStore{convs: make(map[string][]Turn), retention: retention}
}

// Read returns a copy of the stored turns.
func (s *InMemoryStore) Read(_ context.Context, conversationID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.convs[conversationID]
	out := make([]Turn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *InMemoryStore) Append(_ context.Context, conversationID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv := append(s.convs[conversationID], turns...)
	if limit := s.retention.MaxTurns; limit > 0 && len(conv) > limit {
		conv = append([]Turn(nil), conv[len(conv)-limit:]...)
	}
	s.convs[conversationID] = conv
	return nil
}
