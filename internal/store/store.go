// Package store defines the settlement journal. Implementations include
// PostgreSQL (source of truth), Redis (read-through cache), and in-memory
// (for testing).
//
// The journal records settlement outcomes only. Pool stakes are not stored;
// pools are rebuilt from configuration on start-up.
package store

import (
	"context"
	"errors"

	"github.com/trustpooler/pool-engine/internal/model"
)

// ErrNotFound is returned when no settlement matches the requested id.
var ErrNotFound = errors.New("store: settlement not found")

// Store is the journal interface. PostgreSQL is the source of truth; Redis
// provides a read-through cache layer.
type Store interface {
	// InsertSettlement appends an immutable settlement record.
	InsertSettlement(ctx context.Context, s *model.Settlement) error

	// GetSettlement retrieves a settlement by its ID.
	GetSettlement(ctx context.Context, id string) (*model.Settlement, error)

	// ListSettlementsByPool returns every settlement of a pool, oldest first.
	ListSettlementsByPool(ctx context.Context, poolID string) ([]model.Settlement, error)
}
