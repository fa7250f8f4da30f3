package pool

import (
	"cmp"
	"fmt"

	"github.com/shopspring/decimal"
)

// HypotheticalOwner is the owner account used for pro-forma stakes.
const HypotheticalOwner = "Hypothetical"

// DefaultFeeRate is the fee retained by the pool operator: 3%.
var DefaultFeeRate = decimal.NewFromFloat(0.03)

// Accounts names the operator accounts of a pool. The engine treats them as
// opaque labels and never parses them.
type Accounts struct {
	Pool    string `json:"pool_account"`
	Manager string `json:"manager_account"`
}

// Ledger is the append-only set of stakes registered with one pool.
//
// A Ledger has a single writer. It is not safe for concurrent use while
// stakes are being registered; concurrent readers should work on a Clone.
type Ledger[L cmp.Ordered, E Event[L, E]] struct {
	nextID   StakeID
	feeRate  decimal.Decimal
	accounts Accounts
	stakes   map[StakeID]E
}

// NewLedger creates an empty ledger. feeRate must be in [0, 1).
func NewLedger[L cmp.Ordered, E Event[L, E]](accounts Accounts, feeRate decimal.Decimal) (*Ledger[L, E], error) {
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFeeRate, feeRate)
	}
	return &Ledger[L, E]{
		feeRate:  feeRate,
		accounts: accounts,
		stakes:   make(map[StakeID]E),
	}, nil
}

// Register records a new stake shaped like template and returns its id.
// Nothing is recorded if the amount or template is rejected.
func (l *Ledger[L, E]) Register(template E, amount decimal.Decimal, owner string) (StakeID, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if err := template.Validate(); err != nil {
		return 0, err
	}

	id := l.nextID
	l.stakes[id] = template.WithStake(StakeRecord{
		ID:           id,
		Amount:       amount,
		OwnerAccount: owner,
		PoolAccount:  l.accounts.Pool,
	})
	l.nextID++
	return id, nil
}

// Len returns the number of registered stakes.
func (l *Ledger[L, E]) Len() int { return len(l.stakes) }

// NextID returns the id the next registered stake will receive.
func (l *Ledger[L, E]) NextID() StakeID { return l.nextID }

// FeeRate returns the fraction of the pool retained as fees.
func (l *Ledger[L, E]) FeeRate() decimal.Decimal { return l.feeRate }

// Accounts returns the operator accounts.
func (l *Ledger[L, E]) Accounts() Accounts { return l.accounts }

// Get returns the stake registered under id.
func (l *Ledger[L, E]) Get(id StakeID) (E, error) {
	e, ok := l.stakes[id]
	if !ok {
		return e, fmt.Errorf("%w: %d", ErrStakeNotFound, id)
	}
	return e, nil
}

// Stakes returns every registered stake ordered by id.
func (l *Ledger[L, E]) Stakes() []E {
	out := make([]E, 0, len(l.stakes))
	for id := StakeID(0); id < l.nextID; id++ {
		out = append(out, l.stakes[id])
	}
	return out
}

// TotalPool is the sum of every stake amount.
func (l *Ledger[L, E]) TotalPool() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.stakes {
		total = total.Add(e.Stake().Amount)
	}
	return total
}

// TotalWinningAmount is the capital deployed on stakes that win at level.
func (l *Ledger[L, E]) TotalWinningAmount(level L) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.stakes {
		total = total.Add(e.WinningAmount(level))
	}
	return total
}

// CountWinners returns how many stakes win at level.
func (l *Ledger[L, E]) CountWinners(level L) int {
	n := 0
	for _, e := range l.stakes {
		if e.IsWinner(level) {
			n++
		}
	}
	return n
}

// PoolWinningAmount sums TotalWinningAmount over every enumerated level.
func (l *Ledger[L, E]) PoolWinningAmount() decimal.Decimal {
	total := decimal.Zero
	for _, level := range Levels(l) {
		total = total.Add(l.TotalWinningAmount(level))
	}
	return total
}

// CategoryTotals sums stake amounts per event category.
func (l *Ledger[L, E]) CategoryTotals() map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, e := range l.stakes {
		c := e.Category()
		totals[c] = totals[c].Add(e.Stake().Amount)
	}
	return totals
}

// Fees is the operator's cut: TotalPool * feeRate.
func (l *Ledger[L, E]) Fees() decimal.Decimal {
	return l.TotalPool().Mul(l.feeRate)
}

// PoolValue is the amount left for winners: TotalPool * (1 - feeRate).
func (l *Ledger[L, E]) PoolValue() decimal.Decimal {
	return l.TotalPool().Mul(decimal.NewFromInt(1).Sub(l.feeRate))
}

// Clone returns an independent copy. Registering on the clone never affects
// the original and the clone's ids continue from the original's counter.
func (l *Ledger[L, E]) Clone() *Ledger[L, E] {
	stakes := make(map[StakeID]E, len(l.stakes))
	// Events hold only values and immutable decimals, so a copy is deep.
	for id, e := range l.stakes {
		stakes[id] = e
	}
	return &Ledger[L, E]{
		nextID:   l.nextID,
		feeRate:  l.feeRate,
		accounts: l.accounts,
		stakes:   stakes,
	}
}
