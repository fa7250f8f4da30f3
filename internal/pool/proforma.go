package pool

import (
	"cmp"
	"errors"

	"github.com/shopspring/decimal"
)

// Hypothetical prices a stake that has not been placed: it registers the
// stake on a clone of l under HypotheticalOwner and settles the clone at
// level. l itself is never modified.
//
// If the hypothetical stake loses, the returned event carries the stake with
// a zero payout and zero results. ErrNoWinningStake is still returned when
// nobody at all wins at level.
func Hypothetical[L cmp.Ordered, E Event[L, E]](l *Ledger[L, E], settle Settler[L, E], template E, amount decimal.Decimal, level L) (E, error) {
	scratch := l.Clone()
	id, err := scratch.Register(template, amount, HypotheticalOwner)
	if err != nil {
		var zero E
		return zero, err
	}
	return valueAt(scratch, settle, id, level)
}

// PayoffCurve returns the payoff of a hypothetical stake at every level
// enumerated from l. The stake is registered once on a single clone and that
// clone is revalued at each level, so its id is the same across the curve.
// Levels at which nobody wins record a zero payoff.
func PayoffCurve[L cmp.Ordered, E Event[L, E]](l *Ledger[L, E], settle Settler[L, E], template E, amount decimal.Decimal) (map[L]decimal.Decimal, error) {
	levels := Levels(l)
	if len(levels) == 0 {
		return nil, ErrEmptyLedger
	}

	scratch := l.Clone()
	id, err := scratch.Register(template, amount, HypotheticalOwner)
	if err != nil {
		return nil, err
	}

	curve := make(map[L]decimal.Decimal, len(levels))
	for _, level := range levels {
		e, err := valueAt(scratch, settle, id, level)
		switch {
		case errors.Is(err, ErrNoWinningStake):
			curve[level] = decimal.Zero
		case err != nil:
			return nil, err
		default:
			curve[level] = e.Settlement().Payoff
		}
	}
	return curve, nil
}

func valueAt[L cmp.Ordered, E Event[L, E]](scratch *Ledger[L, E], settle Settler[L, E], id StakeID, level L) (E, error) {
	winners, err := settle(scratch, level)
	if err != nil {
		var zero E
		return zero, err
	}
	if e, ok := winners[id]; ok {
		return e, nil
	}
	return scratch.Get(id)
}
