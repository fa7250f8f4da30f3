package pool

import (
	"cmp"
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

var testAccounts = Accounts{Pool: "pool-account", Manager: "manager-account"}

// newDefaultPool builds the category scenario: 3000 on "default" against
// 15000 on "no_default" at the default 3% fee.
func newDefaultPool(t *testing.T) *CategoryPool {
	t.Helper()
	p, err := NewCategoryPool(testAccounts, DefaultFeeRate)
	if err != nil {
		t.Fatalf("NewCategoryPool: %v", err)
	}
	stakes := []struct {
		outcome string
		amount  float64
		owner   string
	}{
		{"default", 500, "barney"},
		{"default", 2500, "barney"},
		{"no_default", 10000, "arnold"},
		{"no_default", 5000, "arnold"},
	}
	for _, s := range stakes {
		if _, err := p.Register(NewCategoryEvent(s.outcome), d(s.amount), s.owner); err != nil {
			t.Fatalf("Register(%s, %v): %v", s.outcome, s.amount, err)
		}
	}
	return p
}

// newLongShortPool builds the directional scenario: longs at 50/55/60 and
// shorts at 60/55/50/40.
func newLongShortPool(t *testing.T) *DirectionalPool {
	t.Helper()
	p, err := NewDirectionalPool(testAccounts, DefaultFeeRate)
	if err != nil {
		t.Fatalf("NewDirectionalPool: %v", err)
	}
	stakes := []struct {
		side   Side
		strike int
		amount float64
		owner  string
	}{
		{Long, 50, 500, "barney"},
		{Long, 55, 250, "barney"},
		{Long, 60, 1000, "barney"},
		{Short, 60, 700, "arnold"},
		{Short, 55, 900, "arnold"},
		{Short, 50, 1000, "arnold"},
		{Short, 40, 1500, "arnold"},
	}
	for _, s := range stakes {
		if _, err := p.Register(NewDirectionalEvent(s.side, s.strike), d(s.amount), s.owner); err != nil {
			t.Fatalf("Register(%s@%d): %v", s.side, s.strike, err)
		}
	}
	return p
}

func assertClose(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !Close(got, want) {
		t.Errorf("%s = %s, want ≈ %s", name, got, want)
	}
}

func emptyCategoryPool(t *testing.T, feeRate decimal.Decimal) *CategoryPool {
	t.Helper()
	p, err := NewCategoryPool(testAccounts, feeRate)
	if err != nil {
		t.Fatalf("NewCategoryPool: %v", err)
	}
	return p
}

func emptyDirectionalPool(t *testing.T) *DirectionalPool {
	t.Helper()
	p, err := NewDirectionalPool(testAccounts, DefaultFeeRate)
	if err != nil {
		t.Fatalf("NewDirectionalPool: %v", err)
	}
	return p
}

// mustRegister registers a stake and fails the test on error.
func mustRegister[L cmp.Ordered, E Event[L, E]](t *testing.T, l *Ledger[L, E], template E, amount decimal.Decimal, owner string) StakeID {
	t.Helper()
	id, err := l.Register(template, amount, owner)
	if err != nil {
		t.Fatalf("Register(%v, %s): %v", template.Level(), amount, err)
	}
	return id
}
