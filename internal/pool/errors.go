package pool

import "errors"

var (
	// ErrInvalidAmount is returned when a stake amount is negative.
	ErrInvalidAmount = errors.New("pool: stake amount must not be negative")

	// ErrInvalidFeeRate is returned when a fee rate falls outside [0, 1).
	ErrInvalidFeeRate = errors.New("pool: fee rate must be in [0, 1)")

	// ErrInvalidSide is returned for a directional event that is neither
	// long nor short.
	ErrInvalidSide = errors.New("pool: side must be Long or Short")

	// ErrEmptyLedger is returned when settlement or valuation is requested on
	// a ledger with no stakes.
	ErrEmptyLedger = errors.New("pool: ledger has no stakes")

	// ErrNoWinningStake is returned when no capital is deployed on the winning
	// side of the requested level, so payoffs are undefined.
	ErrNoWinningStake = errors.New("pool: no winning stake at level")

	// ErrConservationViolation is returned when payouts plus fees fail to
	// reconcile with the total pool. It always indicates an engine bug.
	ErrConservationViolation = errors.New("pool: conservation check failed")

	// ErrStakeNotFound is returned by lookups for an unknown stake id.
	ErrStakeNotFound = errors.New("pool: stake not found")
)

// IsClientError reports whether err was caused by caller input or by the
// state of the pool rather than by the engine itself.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrInvalidFeeRate,
		ErrInvalidSide,
		ErrEmptyLedger,
		ErrNoWinningStake,
		ErrStakeNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInternal reports whether err is an engine invariant failure.
func IsInternal(err error) bool {
	return errors.Is(err, ErrConservationViolation)
}
