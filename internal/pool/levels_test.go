package pool

import (
	"math"
	"slices"
	"testing"
)

func TestLevels_CategoryHasNoFringe(t *testing.T) {
	p := newDefaultPool(t)

	got := p.Levels()
	want := []string{"default", "no_default"}
	if !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}
}

func TestLevels_DirectionalAddsFringe(t *testing.T) {
	p := newLongShortPool(t)

	got := p.Levels()
	want := []int{39, 40, 50, 55, 60, 61}
	if !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}
}

func TestLevels_SingleStrike(t *testing.T) {
	p := emptyDirectionalPool(t)
	mustRegister(t, p.Ledger, NewDirectionalEvent(Long, 100), d(10), "a")
	mustRegister(t, p.Ledger, NewDirectionalEvent(Short, 100), d(10), "b")

	got := p.Levels()
	want := []int{99, 100, 101}
	if !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}
}

func TestLevels_EmptyLedger(t *testing.T) {
	cp := emptyCategoryPool(t, DefaultFeeRate)
	if got := cp.Levels(); len(got) != 0 {
		t.Errorf("expected no levels, got %v", got)
	}
	dp := emptyDirectionalPool(t)
	if got := dp.Levels(); len(got) != 0 {
		t.Errorf("expected no levels, got %v", got)
	}
}

func TestLevels_FringeStopsAtIntBounds(t *testing.T) {
	top := emptyDirectionalPool(t)
	mustRegister(t, top.Ledger, NewDirectionalEvent(Short, math.MaxInt), d(10), "a")
	if got, want := top.Levels(), []int{math.MaxInt - 1, math.MaxInt}; !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}

	bottom := emptyDirectionalPool(t)
	mustRegister(t, bottom.Ledger, NewDirectionalEvent(Long, math.MinInt), d(10), "a")
	if got, want := bottom.Levels(), []int{math.MinInt, math.MinInt + 1}; !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}
}
