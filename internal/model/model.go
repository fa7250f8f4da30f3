// Package model defines the wire and journal types shared by the settlement
// desk and the store. All monetary values use shopspring/decimal.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement is an immutable journal record of one settlement run: who is
// owed what when a pool closes at Level. Once created it is never modified.
type Settlement struct {
	ID            string          `json:"id" db:"id"`
	PoolID        string          `json:"pool_id" db:"pool_id"`
	Kind          string          `json:"kind" db:"kind"`   // "category" or "directional"
	Level         string          `json:"level" db:"level"` // outcome name or closing price
	PoolAccount   string          `json:"pool_account" db:"pool_account"`
	TotalPool     decimal.Decimal `json:"total_pool" db:"total_pool"`
	Fees          decimal.Decimal `json:"fees" db:"fees"`
	WinningAmount decimal.Decimal `json:"winning_amount" db:"winning_amount"`
	TotalPayout   decimal.Decimal `json:"total_payout" db:"total_payout"`
	Payouts       []Payout        `json:"payouts" db:"payouts"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Payout is one winning stake's share of a settlement.
type Payout struct {
	StakeID       int             `json:"stake_id"`
	Owner         string          `json:"owner"`
	Event         string          `json:"event"` // descriptor, e.g. "default" or "LONG@55"
	Amount        decimal.Decimal `json:"amount"`
	Payout        decimal.Decimal `json:"payout"`
	Payoff        decimal.Decimal `json:"payoff"`
	PoolShare     decimal.Decimal `json:"pool_share"`
	WinningsShare decimal.Decimal `json:"winnings_share"`

	// Directional pools only.
	PrimaFaciePayout *decimal.Decimal `json:"prima_facie_payout,omitempty"`
	InverseDistance  *decimal.Decimal `json:"inverse_distance_to_pin,omitempty"`
	AdjustedAmount   *decimal.Decimal `json:"adjusted_amount,omitempty"`
}

// PoolSummary is the read-only reporting view of a pool.
type PoolSummary struct {
	ID                string                     `json:"id"`
	Kind              string                     `json:"kind"`
	PoolAccount       string                     `json:"pool_account"`
	ManagerAccount    string                     `json:"manager_account"`
	FeeRate           decimal.Decimal            `json:"fee_rate"`
	Stakes            int                        `json:"stakes"`
	TotalPool         decimal.Decimal            `json:"total_pool"`
	Fees              decimal.Decimal            `json:"fees"`
	PoolWinningAmount decimal.Decimal            `json:"pool_winning_amount"`
	CategoryTotals    map[string]decimal.Decimal `json:"category_totals"`
	Levels            []string                   `json:"levels"`
}

// WinningSummary reports the winning side of a pool at one level.
type WinningSummary struct {
	PoolID        string          `json:"pool_id"`
	Level         string          `json:"level"`
	WinningAmount decimal.Decimal `json:"winning_amount"`
	Winners       int             `json:"winners"`
}

// Quote is the pro-forma settlement of a hypothetical stake.
type Quote struct {
	PoolID    string          `json:"pool_id"`
	Event     string          `json:"event"`
	Level     string          `json:"level"`
	Amount    decimal.Decimal `json:"amount"`
	Wins      bool            `json:"wins"`
	Payout    decimal.Decimal `json:"payout"`
	Payoff    decimal.Decimal `json:"payoff"`
	PoolShare decimal.Decimal `json:"pool_share"`
}

// CurvePoint is the payoff of a hypothetical stake at one level.
type CurvePoint struct {
	Level  string          `json:"level"`
	Payoff decimal.Decimal `json:"payoff"`
}

// PayoffCurve is a hypothetical stake's payoff across every enumerated level,
// ordered by level.
type PayoffCurve struct {
	PoolID string          `json:"pool_id"`
	Event  string          `json:"event"`
	Amount decimal.Decimal `json:"amount"`
	Points []CurvePoint    `json:"points"`
}
