package pool

import "github.com/shopspring/decimal"

// CategoryPool is a mutually exclusive outcome pool.
type CategoryPool struct {
	*Ledger[string, CategoryEvent]
}

// NewCategoryPool creates an empty category pool.
func NewCategoryPool(accounts Accounts, feeRate decimal.Decimal) (*CategoryPool, error) {
	l, err := NewLedger[string, CategoryEvent](accounts, feeRate)
	if err != nil {
		return nil, err
	}
	return &CategoryPool{Ledger: l}, nil
}

// Levels returns the distinct outcomes staked on.
func (p *CategoryPool) Levels() []string { return Levels(p.Ledger) }

// Settle settles the pool with closing as the winning outcome.
func (p *CategoryPool) Settle(closing string) (map[StakeID]CategoryEvent, error) {
	return SettleCategory(p.Ledger, closing)
}

// Quote prices a hypothetical stake if the pool closes at level.
func (p *CategoryPool) Quote(template CategoryEvent, amount decimal.Decimal, level string) (CategoryEvent, error) {
	return Hypothetical(p.Ledger, SettleCategory, template, amount, level)
}

// PayoffCurve prices a hypothetical stake at every staked outcome.
func (p *CategoryPool) PayoffCurve(template CategoryEvent, amount decimal.Decimal) (map[string]decimal.Decimal, error) {
	return PayoffCurve(p.Ledger, SettleCategory, template, amount)
}

// DirectionalPool is a long/short pool settled at an integer closing price.
type DirectionalPool struct {
	*Ledger[int, DirectionalEvent]
}

// NewDirectionalPool creates an empty directional pool.
func NewDirectionalPool(accounts Accounts, feeRate decimal.Decimal) (*DirectionalPool, error) {
	l, err := NewLedger[int, DirectionalEvent](accounts, feeRate)
	if err != nil {
		return nil, err
	}
	return &DirectionalPool{Ledger: l}, nil
}

// Levels returns every staked strike plus one tick either side.
func (p *DirectionalPool) Levels() []int { return Levels(p.Ledger) }

// Settle settles the pool at closing price.
func (p *DirectionalPool) Settle(closing int) (map[StakeID]DirectionalEvent, error) {
	return SettleDirectional(p.Ledger, closing)
}

// Quote prices a hypothetical stake if the pool closes at price level.
func (p *DirectionalPool) Quote(template DirectionalEvent, amount decimal.Decimal, level int) (DirectionalEvent, error) {
	return Hypothetical(p.Ledger, SettleDirectional, template, amount, level)
}

// PayoffCurve prices a hypothetical stake at every enumerated level.
func (p *DirectionalPool) PayoffCurve(template DirectionalEvent, amount decimal.Decimal) (map[int]decimal.Decimal, error) {
	return PayoffCurve(p.Ledger, SettleDirectional, template, amount)
}
