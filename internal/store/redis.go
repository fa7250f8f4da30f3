package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trustpooler/pool-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) InsertSettlement(ctx context.Context, st *model.Settlement) error {
	if err := s.primary.InsertSettlement(ctx, st); err != nil {
		return err
	}
	// Settlements are immutable, so the record itself can be cached now.
	s.cache(ctx, settlementKey(st.ID), st)
	s.rdb.Del(ctx, poolSettlementsKey(st.PoolID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetSettlement(ctx context.Context, id string) (*model.Settlement, error) {
	data, err := s.rdb.Get(ctx, settlementKey(id)).Bytes()
	if err == nil {
		var st model.Settlement
		if json.Unmarshal(data, &st) == nil {
			return &st, nil
		}
	}

	// Cache miss: read from primary.
	st, err := s.primary.GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, settlementKey(id), st)
	return st, nil
}

func (s *CachedStore) ListSettlementsByPool(ctx context.Context, poolID string) ([]model.Settlement, error) {
	data, err := s.rdb.Get(ctx, poolSettlementsKey(poolID)).Bytes()
	if err == nil {
		var settlements []model.Settlement
		if json.Unmarshal(data, &settlements) == nil {
			return settlements, nil
		}
	}

	// Cache miss.
	settlements, err := s.primary.ListSettlementsByPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, poolSettlementsKey(poolID), settlements)
	return settlements, nil
}

// --- Cache helpers ---

func (s *CachedStore) cache(ctx context.Context, key string, v any) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func settlementKey(id string) string           { return fmt.Sprintf("settlement:%s", id) }
func poolSettlementsKey(poolID string) string { return fmt.Sprintf("pool-settlements:%s", poolID) }
