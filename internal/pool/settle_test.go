package pool

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

// --- Category pool ---

func TestSettleCategory_DefaultScenario(t *testing.T) {
	p := newDefaultPool(t)

	winners, err := p.Settle("default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(winners) != 2 {
		t.Fatalf("expected 2 winners, got %d", len(winners))
	}
	if _, ok := winners[2]; ok {
		t.Error("losing stake 2 should be absent from the result")
	}

	small, big := winners[0], winners[1]
	if !small.Payoff.Equal(d(5.82)) {
		t.Errorf("payoff = %s, want 5.82", small.Payoff)
	}
	assertClose(t, "payout(500)", small.Tx.Payout, d(2910))
	assertClose(t, "payout(2500)", big.Tx.Payout, d(14550))
	assertClose(t, "winnings share(500)", small.WinningsShare, d(500.0/3000))
	assertClose(t, "pool share(2500)", big.PoolShare, d(2500.0/17460))

	total := small.Tx.Payout.Add(big.Tx.Payout).Add(p.Fees())
	assertClose(t, "payout+fees", total, d(18000))
}

func TestSettleCategory_FlatOdds(t *testing.T) {
	p := newDefaultPool(t)
	mustRegister(t, p.Ledger, NewCategoryEvent("no_default"), d(123.45), "carol")
	mustRegister(t, p.Ledger, NewCategoryEvent("no_default"), d(0.01), "dave")

	winners, err := p.Settle("no_default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var first decimal.Decimal
	for id, w := range winners {
		if first.IsZero() {
			first = w.Payoff
			continue
		}
		if !w.Payoff.Equal(first) {
			t.Errorf("stake %d payoff %s differs from %s", id, w.Payoff, first)
		}
	}
}

func TestSettleCategory_Conservation(t *testing.T) {
	amounts := [][]float64{
		{1, 2, 3},
		{0.33, 0.33, 0.34, 99.99},
		{1e6, 1, 7.77},
	}
	outcomes := []string{"a", "b", "c", "d"}

	for _, set := range amounts {
		p := emptyCategoryPool(t, d(0.05))
		for i, a := range set {
			mustRegister(t, p.Ledger, NewCategoryEvent(outcomes[i%len(outcomes)]), d(a), "owner")
		}
		for _, level := range p.Levels() {
			winners, err := p.Settle(level)
			if err != nil {
				t.Fatalf("Settle(%s): %v", level, err)
			}
			total := decimal.Zero
			for _, w := range winners {
				total = total.Add(w.Tx.Payout)
			}
			assertClose(t, "payout+fees at "+level, total.Add(p.Fees()), p.TotalPool())
		}
	}
}

func TestSettleCategory_NoWinner(t *testing.T) {
	p := newDefaultPool(t)

	winners, err := p.Settle("restructuring")
	if !errors.Is(err, ErrNoWinningStake) {
		t.Fatalf("expected ErrNoWinningStake, got %v", err)
	}
	if winners != nil {
		t.Errorf("expected no result, got %v", winners)
	}
}

func TestSettleCategory_OnlyZeroStakesWin(t *testing.T) {
	p := newDefaultPool(t)
	mustRegister(t, p.Ledger, NewCategoryEvent("restructuring"), decimal.Zero, "zed")

	if _, err := p.Settle("restructuring"); !errors.Is(err, ErrNoWinningStake) {
		t.Errorf("expected ErrNoWinningStake for zero winning capital, got %v", err)
	}
}

func TestSettleCategory_EmptyLedger(t *testing.T) {
	p := emptyCategoryPool(t, DefaultFeeRate)

	if _, err := p.Settle("default"); !errors.Is(err, ErrEmptyLedger) {
		t.Errorf("expected ErrEmptyLedger, got %v", err)
	}
}

func TestSettleCategory_DoesNotWriteBack(t *testing.T) {
	p := newDefaultPool(t)

	if _, err := p.Settle("default"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range p.Stakes() {
		if !e.Tx.Payout.IsZero() || !e.Payoff.IsZero() {
			t.Errorf("stake %d mutated by settlement: %+v", e.Tx.ID, e)
		}
	}
}

// --- Directional pool ---

func TestSettleDirectional_Scenario(t *testing.T) {
	p := newLongShortPool(t)

	winners, err := p.Settle(56)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(winners) != 3 {
		t.Fatalf("expected 3 winners (Long@50, Long@55, Short@60), got %d", len(winners))
	}

	long50, long55, short60 := winners[0], winners[1], winners[3]
	if long50.Strike != 50 || long55.Strike != 55 || short60.Strike != 60 || short60.Side != Short {
		t.Fatalf("unexpected winners: %+v", winners)
	}

	// poolValue = 5850 * 0.97 = 5674.5, winning capital = 1450.
	primaFacie := d(5674.5).Div(d(1450))
	for id, w := range winners {
		if !w.PrimaFaciePayoff.Equal(primaFacie) {
			t.Errorf("stake %d prima facie payoff %s, want %s", id, w.PrimaFaciePayoff, primaFacie)
		}
	}

	assertClose(t, "inverse distance Long@50", long50.InverseDistanceToPin, d(1.0/6))
	assertClose(t, "inverse distance Long@55", long55.InverseDistanceToPin, d(1))
	assertClose(t, "inverse distance Short@60", short60.InverseDistanceToPin, d(0.25))

	// Σ inverse distance = 17/12, so payouts split poolValue 2:12:3 out of 17.
	assertClose(t, "payout Long@50", long50.Tx.Payout, d(5674.5*2/17))
	assertClose(t, "payout Long@55", long55.Tx.Payout, d(5674.5*12/17))
	assertClose(t, "payout Short@60", short60.Tx.Payout, d(5674.5*3/17))
	assertClose(t, "adjusted amount Long@55", long55.AdjustedAmount, d(1450.0*12/17))

	if !long55.Payoff.GreaterThan(long50.Payoff) || !long55.Payoff.GreaterThan(short60.Payoff) {
		t.Errorf("stake nearest the pin should have the highest payoff: 50→%s 55→%s 60→%s",
			long50.Payoff, long55.Payoff, short60.Payoff)
	}
}

func TestSettleDirectional_Conservation(t *testing.T) {
	p := newLongShortPool(t)
	mustRegister(t, p.Ledger, NewDirectionalEvent(Long, 47), d(333.33), "carol")
	mustRegister(t, p.Ledger, NewDirectionalEvent(Short, 58), d(0.07), "dave")

	for closing := 30; closing <= 70; closing++ {
		winners, err := p.Settle(closing)
		if errors.Is(err, ErrNoWinningStake) {
			continue
		}
		if err != nil {
			t.Fatalf("Settle(%d): %v", closing, err)
		}

		primaFacie, payout := decimal.Zero, decimal.Zero
		for _, w := range winners {
			primaFacie = primaFacie.Add(w.PrimaFaciePayout)
			payout = payout.Add(w.Tx.Payout)
		}
		assertClose(t, "prima facie vs payout", primaFacie, payout)
		assertClose(t, "prima facie+fees vs pool", primaFacie.Add(p.Fees()), p.TotalPool())
	}
}

func TestSettleDirectional_PayoutMonotoneInDistance(t *testing.T) {
	p := emptyDirectionalPool(t)
	for _, strike := range []int{90, 95, 98, 99} {
		mustRegister(t, p.Ledger, NewDirectionalEvent(Long, strike), d(100), "long")
	}
	for _, strike := range []int{101, 104, 120} {
		mustRegister(t, p.Ledger, NewDirectionalEvent(Short, strike), d(100), "short")
	}

	winners, err := p.Settle(100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, a := range winners {
		for j, b := range winners {
			if a.Distance(100) < b.Distance(100) && a.Payoff.LessThan(b.Payoff) {
				t.Errorf("stake %d (distance %d) payoff %s < stake %d (distance %d) payoff %s",
					i, a.Distance(100), a.Payoff, j, b.Distance(100), b.Payoff)
			}
			if a.Distance(100) < b.Distance(100) && a.Tx.Payout.LessThan(b.Tx.Payout) {
				t.Errorf("stake %d payout %s < stake %d payout %s", i, a.Tx.Payout, j, b.Tx.Payout)
			}
		}
	}
}

func TestSettleDirectional_StrikeAtPinLoses(t *testing.T) {
	p := emptyDirectionalPool(t)
	mustRegister(t, p.Ledger, NewDirectionalEvent(Long, 50), d(100), "a")
	mustRegister(t, p.Ledger, NewDirectionalEvent(Short, 50), d(100), "b")

	if _, err := p.Settle(50); !errors.Is(err, ErrNoWinningStake) {
		t.Errorf("strict inequalities: nobody wins at the strike, got %v", err)
	}
}

func TestSettleDirectional_ZeroStakeWinner(t *testing.T) {
	p := emptyDirectionalPool(t)
	mustRegister(t, p.Ledger, NewDirectionalEvent(Long, 50), decimal.Zero, "free-rider")
	mustRegister(t, p.Ledger, NewDirectionalEvent(Long, 40), d(100), "payer")
	mustRegister(t, p.Ledger, NewDirectionalEvent(Short, 45), d(100), "loser")

	winners, err := p.Settle(55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zero := winners[0]
	if !zero.Payoff.IsZero() {
		t.Errorf("zero stake payoff should be reported as zero, got %s", zero.Payoff)
	}
	if !zero.Tx.Payout.IsPositive() {
		t.Errorf("inverse-distance redistribution pays the zero stake, got %s", zero.Tx.Payout)
	}
}

func TestSettleDirectional_NoWinner(t *testing.T) {
	p := emptyDirectionalPool(t)
	mustRegister(t, p.Ledger, NewDirectionalEvent(Long, 50), d(100), "a")

	winners, err := p.Settle(49)
	if !errors.Is(err, ErrNoWinningStake) {
		t.Fatalf("expected ErrNoWinningStake, got %v", err)
	}
	for _, w := range winners {
		t.Errorf("unexpected winner %+v", w)
	}
}

func TestSettleDirectional_EmptyLedger(t *testing.T) {
	p := emptyDirectionalPool(t)

	if _, err := p.Settle(56); !errors.Is(err, ErrEmptyLedger) {
		t.Errorf("expected ErrEmptyLedger, got %v", err)
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsClientError(ErrNoWinningStake) || IsInternal(ErrNoWinningStake) {
		t.Error("ErrNoWinningStake is a client error")
	}
	if IsClientError(ErrConservationViolation) || !IsInternal(ErrConservationViolation) {
		t.Error("ErrConservationViolation is internal")
	}
}

func TestDistance_FullIntRange(t *testing.T) {
	e := NewDirectionalEvent(Long, math.MinInt)
	if got := e.Distance(math.MaxInt); got != math.MaxUint64 {
		t.Errorf("Distance(MaxInt) from MinInt = %d, want %d", got, uint64(math.MaxUint64))
	}
	if w := e.WinningWeight(math.MaxInt); !w.IsPositive() {
		t.Errorf("winning weight at maximum distance = %s, want > 0", w)
	}
}

func TestSettleDirectional_ExtremeStrikes(t *testing.T) {
	p := emptyDirectionalPool(t)
	far := mustRegister(t, p.Ledger, NewDirectionalEvent(Long, math.MinInt), d(100), "far")
	near := mustRegister(t, p.Ledger, NewDirectionalEvent(Long, math.MaxInt-1), d(100), "near")

	winners, err := p.Settle(math.MaxInt)
	if err != nil {
		t.Fatalf("Settle(MaxInt): %v", err)
	}
	if len(winners) != 2 {
		t.Fatalf("expected 2 winners, got %d", len(winners))
	}
	assertClose(t, "payout at distance 1", winners[near].Tx.Payout, p.PoolValue())
	assertClose(t, "payout at maximum distance", winners[far].Tx.Payout, decimal.Zero)

	// A lone winner at the maximum distance still takes the whole pool.
	lone := emptyDirectionalPool(t)
	id := mustRegister(t, lone.Ledger, NewDirectionalEvent(Long, math.MinInt), d(100), "far")
	mustRegister(t, lone.Ledger, NewDirectionalEvent(Short, 0), d(50), "loser")

	winners, err = lone.Settle(math.MaxInt)
	if err != nil {
		t.Fatalf("Settle(MaxInt): %v", err)
	}
	assertClose(t, "lone payout", winners[id].Tx.Payout, lone.PoolValue())
}
