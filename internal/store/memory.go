package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/trustpooler/pool-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	settlements map[string]*model.Settlement
	order       []string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		settlements: make(map[string]*model.Settlement),
	}
}

func (s *MemoryStore) InsertSettlement(_ context.Context, st *model.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.settlements[st.ID]; exists {
		return fmt.Errorf("settlement %s already exists", st.ID)
	}

	// Store a copy to avoid external mutation.
	s.settlements[st.ID] = clone(st)
	s.order = append(s.order, st.ID)
	return nil
}

func (s *MemoryStore) GetSettlement(_ context.Context, id string) (*model.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settlements[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(st), nil
}

func (s *MemoryStore) ListSettlementsByPool(_ context.Context, poolID string) ([]model.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Settlement
	for _, id := range s.order {
		if st := s.settlements[id]; st.PoolID == poolID {
			result = append(result, *clone(st))
		}
	}
	return result, nil
}

func clone(st *model.Settlement) *model.Settlement {
	c := *st
	c.Payouts = slices.Clone(st.Payouts)
	return &c
}
