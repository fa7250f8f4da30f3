package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trustpooler/pool-engine/internal/model"
)

// Schema creates the settlement journal table.
const Schema = `
CREATE TABLE IF NOT EXISTS settlements (
	id             TEXT PRIMARY KEY,
	pool_id        TEXT        NOT NULL,
	kind           TEXT        NOT NULL,
	level          TEXT        NOT NULL,
	pool_account   TEXT        NOT NULL,
	total_pool     NUMERIC     NOT NULL,
	fees           NUMERIC     NOT NULL,
	winning_amount NUMERIC     NOT NULL,
	total_payout   NUMERIC     NOT NULL,
	payouts        JSONB       NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS settlements_pool_idx ON settlements (pool_id, created_at);
`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Totals are stored as NUMERIC for exact decimal precision; the per-stake
// payouts are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the journal table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PostgresStore) InsertSettlement(ctx context.Context, st *model.Settlement) error {
	payouts, err := json.Marshal(st.Payouts)
	if err != nil {
		return fmt.Errorf("encode payouts: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO settlements (id, pool_id, kind, level, pool_account,
		                          total_pool, fees, winning_amount, total_payout, payouts, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10, $11)`,
		st.ID, st.PoolID, st.Kind, st.Level, st.PoolAccount,
		st.TotalPool.String(), st.Fees.String(),
		st.WinningAmount.String(), st.TotalPayout.String(),
		payouts, st.CreatedAt,
	)
	return err
}

const selectSettlement = `SELECT id, pool_id, kind, level, pool_account,
        total_pool::TEXT, fees::TEXT, winning_amount::TEXT, total_payout::TEXT,
        payouts, created_at
 FROM settlements`

func (s *PostgresStore) GetSettlement(ctx context.Context, id string) (*model.Settlement, error) {
	rows, err := s.pool.Query(ctx, selectSettlement+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get settlement %s: %w", id, err)
	}
	defer rows.Close()

	settlements, err := scanSettlements(rows)
	if err != nil {
		return nil, fmt.Errorf("get settlement %s: %w", id, err)
	}
	if len(settlements) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &settlements[0], nil
}

func (s *PostgresStore) ListSettlementsByPool(ctx context.Context, poolID string) ([]model.Settlement, error) {
	rows, err := s.pool.Query(ctx, selectSettlement+` WHERE pool_id = $1 ORDER BY created_at`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSettlements(rows)
}

// scanSettlements reads pgx rows into Settlement slices.
func scanSettlements(rows pgx.Rows) ([]model.Settlement, error) {
	var settlements []model.Settlement
	for rows.Next() {
		var st model.Settlement
		var totalPool, fees, winning, payout string
		var payouts []byte

		if err := rows.Scan(&st.ID, &st.PoolID, &st.Kind, &st.Level, &st.PoolAccount,
			&totalPool, &fees, &winning, &payout,
			&payouts, &st.CreatedAt); err != nil {
			return nil, err
		}

		st.TotalPool, _ = decimal.NewFromString(totalPool)
		st.Fees, _ = decimal.NewFromString(fees)
		st.WinningAmount, _ = decimal.NewFromString(winning)
		st.TotalPayout, _ = decimal.NewFromString(payout)
		if err := json.Unmarshal(payouts, &st.Payouts); err != nil {
			return nil, fmt.Errorf("decode payouts of %s: %w", st.ID, err)
		}

		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	return settlements, nil
}
