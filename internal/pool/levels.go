package pool

import (
	"cmp"
	"math"
	"slices"
)

// Levels returns the distinct levels worth evaluating for l, ascending.
//
// Every level a stake was struck at is included. For integer levels one tick
// below the minimum and one tick above the maximum are added as well, so that
// payoff curves show the flat region outside the staked range. An empty
// ledger yields nil.
func Levels[L cmp.Ordered, E Event[L, E]](l *Ledger[L, E]) []L {
	if l.Len() == 0 {
		return nil
	}

	seen := make(map[L]struct{}, l.Len())
	for _, e := range l.stakes {
		seen[e.Level()] = struct{}{}
	}

	levels := make([]L, 0, len(seen)+2)
	for level := range seen {
		levels = append(levels, level)
	}
	slices.Sort(levels)

	return withFringe(levels)
}

// withFringe adds the one-tick-out levels when L is int. levels must be
// sorted and non-empty. A fringe tick that would leave the int range is
// omitted.
func withFringe[L cmp.Ordered](levels []L) []L {
	lo, ok := any(levels[0]).(int)
	if !ok {
		return levels
	}
	hi := any(levels[len(levels)-1]).(int)

	out := make([]L, 0, len(levels)+2)
	if lo > math.MinInt {
		out = append(out, any(lo-1).(L))
	}
	out = append(out, levels...)
	if hi < math.MaxInt {
		out = append(out, any(hi+1).(L))
	}
	return out
}
