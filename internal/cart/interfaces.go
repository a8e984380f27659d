package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// CartRepository exposes persistence operations for cart staging data.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error)
	FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error)
	ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error
	UpdateStatus(ctx context.Context, cartID, buyerID uuid.UUID, status enums.CartStatus) error
}

// CatalogLoader resolves products and variants referenced by cart items.
type CatalogLoader interface {
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
}
