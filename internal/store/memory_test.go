package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustpooler/pool-engine/internal/model"
)

func settlement(id, poolID string, at time.Time) *model.Settlement {
	return &model.Settlement{
		ID:            id,
		PoolID:        poolID,
		Kind:          "category",
		Level:         "default",
		TotalPool:     decimal.NewFromInt(18000),
		Fees:          decimal.NewFromInt(540),
		WinningAmount: decimal.NewFromInt(3000),
		TotalPayout:   decimal.NewFromInt(17460),
		Payouts: []model.Payout{
			{StakeID: 0, Owner: "barney", Amount: decimal.NewFromInt(500), Payout: decimal.NewFromInt(2910)},
		},
		CreatedAt: at,
	}
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, s.InsertSettlement(ctx, settlement("s1", "credit", now)))

	got, err := s.GetSettlement(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "credit", got.PoolID)
	assert.True(t, got.TotalPayout.Equal(decimal.NewFromInt(17460)))
	require.Len(t, got.Payouts, 1)
	assert.Equal(t, "barney", got.Payouts[0].Owner)
}

func TestMemoryStore_DuplicateRejected(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.InsertSettlement(ctx, settlement("s1", "credit", time.Now())))
	assert.Error(t, s.InsertSettlement(ctx, settlement("s1", "credit", time.Now())))
}

func TestMemoryStore_NotFound(t *testing.T) {
	_, err := NewMemoryStore().GetSettlement(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListByPoolInInsertOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()

	require.NoError(t, s.InsertSettlement(ctx, settlement("a", "credit", now)))
	require.NoError(t, s.InsertSettlement(ctx, settlement("b", "btc", now)))
	require.NoError(t, s.InsertSettlement(ctx, settlement("c", "credit", now.Add(time.Second))))

	got, err := s.ListSettlementsByPool(ctx, "credit")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	none, err := s.ListSettlementsByPool(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := settlement("s1", "credit", time.Now())

	require.NoError(t, s.InsertSettlement(ctx, in))
	in.Payouts[0].Owner = "mallory"
	in.PoolID = "other"

	got, err := s.GetSettlement(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "credit", got.PoolID)
	assert.Equal(t, "barney", got.Payouts[0].Owner)

	got.Payouts[0].Owner = "eve"
	again, err := s.GetSettlement(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "barney", again.Payouts[0].Owner)
}
