// Package ledger persists successful extractions into per-identity
// append-only collections.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

// Store is the append-only shot ledger. Appends for the same owner are
// serialized so concurrent writes are never lost; different owners do not
// contend. List on an owner with no prior writes returns an empty slice,
// never a failure. Records are immutable and never deleted here.
type Store interface {
	Append(ctx context.Context, owner entity.Identity, m entity.ShotMetrics) (string, error)
	List(ctx context.Context, owner entity.Identity) ([]entity.ShotRecord, error)
	Close() error
}

// checkOwner rejects ephemeral identities: only persistent callers own a
// ledger.
func checkOwner(owner entity.Identity) error {
	if !owner.IsPersistent() {
		return fmt.Errorf("%w: ledger owner must be a persistent identity", common.ErrInvalidInput)
	}
	if owner.Key == "" {
		return fmt.Errorf("%w: ledger owner key is empty", common.ErrInvalidInput)
	}
	return nil
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
