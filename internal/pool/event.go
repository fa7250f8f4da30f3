package pool

import (
	"cmp"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Event describes what a stake is on and how a closing level pays it. E is
// the concrete event type itself, so that WithStake can return it by value.
//
// CategoryEvent and DirectionalEvent are the two implementations.
type Event[L cmp.Ordered, E any] interface {
	// Stake returns the stake record carried by the event.
	Stake() StakeRecord

	// WithStake returns a copy of the event carrying rec, with all
	// settlement results cleared.
	WithStake(rec StakeRecord) E

	// IsWinner reports whether the event pays out when the pool closes at level.
	IsWinner(level L) bool

	// WinningAmount is the staked amount if the event wins at level, else zero.
	WinningAmount(level L) decimal.Decimal

	// WinningWeight is the redistribution weight of a winning event at level.
	// Losing events weigh zero.
	WinningWeight(level L) decimal.Decimal

	// Level is the level this event was struck at.
	Level() L

	// Category is the reporting bucket used by Ledger.CategoryTotals.
	Category() string

	// Settlement returns the settlement results. Zero until settled.
	Settlement() Result

	// Validate rejects templates that cannot be registered.
	Validate() error
}

// Result holds the settlement outputs common to every event type.
type Result struct {
	PoolShare     decimal.Decimal `json:"pool_share"`     // amount / fee-adjusted pool value
	WinningsShare decimal.Decimal `json:"winnings_share"` // amount / winning-side capital
	Payoff        decimal.Decimal `json:"payoff"`         // payout / amount
}

// --- Category pool ---

// CategoryEvent is a stake on one of several mutually exclusive outcomes.
type CategoryEvent struct {
	Outcome string      `json:"outcome"`
	Tx      StakeRecord `json:"tx"`
	Result
}

// NewCategoryEvent returns a template for a stake on outcome.
func NewCategoryEvent(outcome string) CategoryEvent {
	return CategoryEvent{Outcome: outcome}
}

func (e CategoryEvent) Stake() StakeRecord { return e.Tx }

func (e CategoryEvent) WithStake(rec StakeRecord) CategoryEvent {
	return CategoryEvent{Outcome: e.Outcome, Tx: rec}
}

// IsWinner is exact string equality with the closing outcome.
func (e CategoryEvent) IsWinner(level string) bool {
	return e.Outcome == level
}

func (e CategoryEvent) WinningAmount(level string) decimal.Decimal {
	if e.IsWinner(level) {
		return e.Tx.Amount
	}
	return decimal.Zero
}

// WinningWeight is flat: every winner weighs one.
func (e CategoryEvent) WinningWeight(level string) decimal.Decimal {
	if e.IsWinner(level) {
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

func (e CategoryEvent) Level() string      { return e.Outcome }
func (e CategoryEvent) Category() string   { return e.Outcome }
func (e CategoryEvent) Settlement() Result { return e.Result }
func (e CategoryEvent) Validate() error    { return nil }

// --- Directional pool ---

// Side is the direction of a directional stake. The zero value is invalid.
type Side int

const (
	Long Side = iota + 1
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "Long"
	case Short:
		return "Short"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// MarshalText encodes the side as "Long" or "Short".
func (s Side) MarshalText() ([]byte, error) {
	if s != Long && s != Short {
		return nil, ErrInvalidSide
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts "long" or "short" in any case.
func (s *Side) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "long":
		*s = Long
	case "short":
		*s = Short
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSide, b)
	}
	return nil
}

// Reweighting holds the intermediate values of the inverse-distance
// redistribution. They are recomputed from scratch on every settlement.
type Reweighting struct {
	PrimaFaciePayoff          decimal.Decimal `json:"prima_facie_payoff"`
	PrimaFaciePayout          decimal.Decimal `json:"prima_facie_payout"`
	InverseDistanceToPin      decimal.Decimal `json:"inverse_distance_to_pin"`
	NormalisedInverseDistance decimal.Decimal `json:"normalised_inverse_distance"`
	AdjustedAmount            decimal.Decimal `json:"adjusted_amount"`
}

// DirectionalEvent is a stake that the closing price ends strictly above
// (Long) or strictly below (Short) Strike.
type DirectionalEvent struct {
	Side   Side        `json:"side"`
	Strike int         `json:"strike"`
	Tx     StakeRecord `json:"tx"`
	Result
	Reweighting
}

// NewDirectionalEvent returns a template for a stake on side at strike.
func NewDirectionalEvent(side Side, strike int) DirectionalEvent {
	return DirectionalEvent{Side: side, Strike: strike}
}

func (e DirectionalEvent) Stake() StakeRecord { return e.Tx }

func (e DirectionalEvent) WithStake(rec StakeRecord) DirectionalEvent {
	return DirectionalEvent{Side: e.Side, Strike: e.Strike, Tx: rec}
}

// IsWinner uses strict inequalities, so a winner is never at distance zero.
func (e DirectionalEvent) IsWinner(closing int) bool {
	switch e.Side {
	case Long:
		return closing > e.Strike
	case Short:
		return closing < e.Strike
	}
	return false
}

func (e DirectionalEvent) WinningAmount(closing int) decimal.Decimal {
	if e.IsWinner(closing) {
		return e.Tx.Amount
	}
	return decimal.Zero
}

// Distance is the absolute gap between the closing price and the strike. It
// is computed in uint64 so that it cannot overflow for any pair of ints.
func (e DirectionalEvent) Distance(closing int) uint64 {
	if closing > e.Strike {
		return uint64(closing) - uint64(e.Strike)
	}
	return uint64(e.Strike) - uint64(closing)
}

// weightPrecision keeps 1/distance non-zero for every uint64 distance.
const weightPrecision = 40

// WinningWeight is 1 / |closing - strike| for winners.
func (e DirectionalEvent) WinningWeight(closing int) decimal.Decimal {
	if !e.IsWinner(closing) {
		return decimal.Zero
	}
	dist := new(big.Int).SetUint64(e.Distance(closing))
	return decimal.NewFromInt(1).DivRound(decimal.NewFromBigInt(dist, 0), weightPrecision)
}

func (e DirectionalEvent) Level() int         { return e.Strike }
func (e DirectionalEvent) Category() string   { return e.Side.String() }
func (e DirectionalEvent) Settlement() Result { return e.Result }

func (e DirectionalEvent) Validate() error {
	if e.Side != Long && e.Side != Short {
		return fmt.Errorf("%w: got %s", ErrInvalidSide, e.Side)
	}
	return nil
}
