// Package pool implements settlement and pro-forma valuation for pari-mutuel
// risk pools.
//
// Two pool shapes are supported:
//   - Category pools: exactly one of N named outcomes wins and the fee-adjusted
//     pool is split pro rata across the winning stakes (flat odds).
//   - Directional pools: stakes go long or short of an integer strike and the
//     winning pool is redistributed by inverse distance to the closing price
//     ("the pin"), so stakes struck closer to the pin earn more.
//
// The engine never moves funds. It computes who is owed what and checks that
// payouts plus fees reconcile with the total pool within Tolerance.
//
// All monetary values use shopspring/decimal. Division rounds at
// decimal.DivisionPrecision, which is why reconciliation uses a tolerance
// rather than exact equality.
package pool

import (
	"github.com/shopspring/decimal"
)

// StakeID identifies a stake inside one ledger. Ids are assigned from 0 in
// registration order with no gaps and no reuse.
type StakeID int

// StakeRecord is one participant's capital at risk. Payout stays zero on the
// ledger's own copy and is only filled in on settled copies.
type StakeRecord struct {
	ID           StakeID         `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	OwnerAccount string          `json:"owner_account"`
	PoolAccount  string          `json:"pool_account"`
	Payout       decimal.Decimal `json:"payout"`
}

// Tolerance is the absolute difference, in currency units, within which two
// amounts reconcile. It assumes cent-denominated currency, not ledger base
// units such as wei. Treat it as a constant.
var Tolerance = decimal.NewFromFloat(0.01)

// Close reports whether a and b reconcile within Tolerance.
func Close(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}
