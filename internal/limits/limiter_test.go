package limits

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestCheck_WithinLimits(t *testing.T) {
	limiter := NewExposureLimiter(d(1000), d(5000))

	err := limiter.Check("Long", d(100), nil)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheck_QuoteTooLarge(t *testing.T) {
	limiter := NewExposureLimiter(d(1000), d(5000))

	err := limiter.Check("Long", d(1000.01), nil)
	if err != ErrQuoteTooLarge {
		t.Errorf("expected ErrQuoteTooLarge, got %v", err)
	}
}

func TestCheck_CategoryExceeded(t *testing.T) {
	limiter := NewExposureLimiter(d(1000), d(5000))

	// Existing 4500 on Short + new 600 = 5100 > 5000.
	totals := map[string]decimal.Decimal{
		"Short": d(4500),
		"Long":  d(100),
	}

	err := limiter.Check("Short", d(600), totals)
	if err != ErrCategoryExposureExceeded {
		t.Errorf("expected ErrCategoryExposureExceeded, got %v", err)
	}
}

func TestCheck_OtherCategoryUnaffected(t *testing.T) {
	limiter := NewExposureLimiter(d(1000), d(5000))

	totals := map[string]decimal.Decimal{
		"Short": d(4900),
	}

	err := limiter.Check("Long", d(600), totals)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheck_AtLimitAllowed(t *testing.T) {
	limiter := NewExposureLimiter(d(1000), d(5000))

	totals := map[string]decimal.Decimal{"default": d(4000)}

	if err := limiter.Check("default", d(1000), totals); err != nil {
		t.Errorf("exactly at both limits should pass, got %v", err)
	}
}

func TestCheck_ZeroDisables(t *testing.T) {
	limiter := NewExposureLimiter(decimal.Zero, d(-1))

	totals := map[string]decimal.Decimal{"default": d(1e9)}

	if err := limiter.Check("default", d(1e9), totals); err != nil {
		t.Errorf("disabled limits should pass, got %v", err)
	}
}
