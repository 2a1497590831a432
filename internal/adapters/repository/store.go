// Package repository holds period snapshots for the renderer.
package repository

import (
	"context"

	"github.com/okian/rankdelta/internal/domain/types"
)

// Store provides read/write access to period snapshots.
type Store interface {
	// Put stores a snapshot, replacing any earlier one for the same period.
	Put(ctx context.Context, snap types.Snapshot) error

	// Get returns the snapshot for a period.
	// Returns ErrNotFound if the period is unknown.
	Get(ctx context.Context, period string) (types.Snapshot, error)

	// Periods returns every stored period key in ascending period order:
	// by year then month, with a YYYY key after that year's months.
	Periods(ctx context.Context) []string

	// Latest returns the last stored period key in period order.
	Latest(ctx context.Context) (string, bool)

	// History returns the stored snapshots for the given periods. Unknown
	// periods are left out; no periods means every snapshot.
	History(ctx context.Context, periods ...string) types.History

	// Count returns the number of stored snapshots.
	Count(ctx context.Context) int
}
