package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
)

// Inventory adapts the repository's stock operations to the interfaces
// checkout and order cancellation consume. Both methods run against the
// caller's transaction.
type Inventory struct {
	repo Repository
}

// NewInventory builds the inventory adapter.
func NewInventory(repo Repository) *Inventory {
	return &Inventory{repo: repo}
}

// Reserve decrements stock for a variant, failing with CodeConflict when
// not enough remains.
func (i *Inventory) Reserve(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	reserved, err := i.repo.WithTx(tx).ReserveInventory(ctx, variantID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve inventory")
	}
	if !reserved {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient inventory").
			WithDetails(map[string]any{"variant_id": variantID, "requested": qty})
	}
	return nil
}

// Release returns stock for a variant.
func (i *Inventory) Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if err := i.repo.WithTx(tx).ReleaseInventory(ctx, variantID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release inventory")
	}
	return nil
}
