package pool

import (
	"cmp"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
)

// Settler settles a ledger at a closing level and returns the settled copy of
// every winning stake keyed by id. Losing stakes are absent (payout zero).
type Settler[L cmp.Ordered, E Event[L, E]] func(l *Ledger[L, E], closing L) (map[StakeID]E, error)

// SettleCategory pays every stake on the closing outcome at the same flat odds:
//
//	poolValue = TotalPool * (1 - feeRate)
//	payoff    = poolValue / winning capital
//	payout    = amount * payoff
//
// The ledger is not modified.
func SettleCategory(l *Ledger[string, CategoryEvent], closing string) (map[StakeID]CategoryEvent, error) {
	poolValue, winValue, err := settlementBasis(l, closing)
	if err != nil {
		return nil, err
	}

	payoff := poolValue.Div(winValue)
	winners := make(map[StakeID]CategoryEvent)
	totalPayout := decimal.Zero

	for id, e := range l.stakes {
		if !e.IsWinner(closing) {
			continue
		}
		amount := e.Tx.Amount
		e.PoolShare = amount.Div(poolValue)
		e.WinningsShare = amount.Div(winValue)
		e.Payoff = payoff
		e.Tx.Payout = amount.Mul(payoff)

		winners[id] = e
		totalPayout = totalPayout.Add(e.Tx.Payout)
	}

	if err := checkConservation("payout+fees vs pool", totalPayout.Add(l.Fees()), l.TotalPool()); err != nil {
		return nil, err
	}
	return winners, nil
}

// SettleDirectional settles a long/short pool at closing price.
//
// Pass 1 computes the flat (prima facie) odds and each winner's inverse
// distance to the pin. Pass 2 needs the total inverse distance from pass 1 and
// redistributes the winning capital by normalised inverse distance:
//
//	adjustedAmount = (invDist / Σ invDist) * winning capital
//	payout         = adjustedAmount * primaFaciePayoff
//	payoff         = payout / amount
//
// The total paid out equals the prima facie total; only its distribution
// changes. Stakes struck nearer the pin are paid more regardless of size.
func SettleDirectional(l *Ledger[int, DirectionalEvent], closing int) (map[StakeID]DirectionalEvent, error) {
	poolValue, winValue, err := settlementBasis(l, closing)
	if err != nil {
		return nil, err
	}

	primaFacie := poolValue.Div(winValue)
	winners := make(map[StakeID]DirectionalEvent)
	totalInverse := decimal.Zero
	totalPrimaFacie := decimal.Zero

	for id, e := range l.stakes {
		if !e.IsWinner(closing) {
			continue
		}
		amount := e.Tx.Amount
		e.PoolShare = amount.Div(poolValue)
		e.WinningsShare = amount.Div(winValue)
		e.PrimaFaciePayoff = primaFacie
		e.PrimaFaciePayout = amount.Mul(primaFacie)
		e.InverseDistanceToPin = e.WinningWeight(closing)

		winners[id] = e
		totalInverse = totalInverse.Add(e.InverseDistanceToPin)
		totalPrimaFacie = totalPrimaFacie.Add(e.PrimaFaciePayout)
	}

	totalPayout := decimal.Zero
	for id, e := range winners {
		e.NormalisedInverseDistance = e.InverseDistanceToPin.Div(totalInverse)
		e.AdjustedAmount = e.NormalisedInverseDistance.Mul(winValue)
		e.Tx.Payout = e.AdjustedAmount.Mul(primaFacie)
		// A zero stake can still be paid; its payoff ratio is undefined.
		e.Payoff = decimal.Zero
		if e.Tx.Amount.IsPositive() {
			e.Payoff = e.Tx.Payout.Div(e.Tx.Amount)
		}

		winners[id] = e
		totalPayout = totalPayout.Add(e.Tx.Payout)
	}

	if err := checkConservation("prima facie+fees vs pool", totalPrimaFacie.Add(l.Fees()), l.TotalPool()); err != nil {
		return nil, err
	}
	if err := checkConservation("prima facie vs reweighted payout", totalPrimaFacie, totalPayout); err != nil {
		return nil, err
	}
	return winners, nil
}

// settlementBasis returns the fee-adjusted pool value and the winning
// capital at closing, failing before any division could be undefined.
func settlementBasis[L cmp.Ordered, E Event[L, E]](l *Ledger[L, E], closing L) (poolValue, winValue decimal.Decimal, err error) {
	if l.Len() == 0 {
		return decimal.Zero, decimal.Zero, ErrEmptyLedger
	}
	winValue = l.TotalWinningAmount(closing)
	if !winValue.IsPositive() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: %v", ErrNoWinningStake, closing)
	}
	return l.PoolValue(), winValue, nil
}

func checkConservation(check string, got, want decimal.Decimal) error {
	if Close(got, want) {
		return nil
	}
	err := fmt.Errorf("%w: %s: got %s, want %s", ErrConservationViolation, check, got, want)
	slog.Error("settlement rejected",
		"check", check,
		"got", got.String(),
		"want", want.String(),
		"tolerance", Tolerance.String(),
	)
	if panicOnViolation {
		panic(err)
	}
	return err
}
