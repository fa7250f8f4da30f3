// Package limits bounds the size of pro-forma quotes so that a single
// hypothetical stake cannot dominate a pool.
//
// Two limits apply:
//   - MaxQuoteAmount caps the amount of any one hypothetical stake.
//   - MaxCategoryExposure caps the capital that would sit in the quoted
//     stake's category (an outcome, or Long/Short) once the stake is added.
//
// A zero limit disables that check.
package limits

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrQuoteTooLarge is returned when a hypothetical stake exceeds
	// MaxQuoteAmount.
	ErrQuoteTooLarge = errors.New("limits: quote amount exceeds maximum")

	// ErrCategoryExposureExceeded is returned when adding the stake would push
	// its category total beyond MaxCategoryExposure.
	ErrCategoryExposureExceeded = errors.New("limits: category exposure limit exceeded")
)

// ExposureLimiter enforces quote-size limits against current category totals.
type ExposureLimiter struct {
	MaxQuoteAmount      decimal.Decimal
	MaxCategoryExposure decimal.Decimal
}

// NewExposureLimiter creates a limiter. Negative limits are treated as zero
// (disabled).
func NewExposureLimiter(maxQuote, maxCategory decimal.Decimal) *ExposureLimiter {
	if maxQuote.IsNegative() {
		maxQuote = decimal.Zero
	}
	if maxCategory.IsNegative() {
		maxCategory = decimal.Zero
	}
	return &ExposureLimiter{
		MaxQuoteAmount:      maxQuote,
		MaxCategoryExposure: maxCategory,
	}
}

// Check validates a hypothetical stake of amount in category against the
// pool's current category totals. Returns nil when within limits.
func (l *ExposureLimiter) Check(category string, amount decimal.Decimal, totals map[string]decimal.Decimal) error {
	// 1. Single quote size.
	if l.MaxQuoteAmount.IsPositive() && amount.GreaterThan(l.MaxQuoteAmount) {
		return ErrQuoteTooLarge
	}

	// 2. Category exposure after the stake is added.
	if l.MaxCategoryExposure.IsPositive() {
		after := totals[category].Add(amount)
		if after.GreaterThan(l.MaxCategoryExposure) {
			return ErrCategoryExposureExceeded
		}
	}

	return nil
}
