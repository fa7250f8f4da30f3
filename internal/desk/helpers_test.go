package desk

import "github.com/shopspring/decimal"

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
