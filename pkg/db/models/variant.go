package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

// Variant is a purchasable SKU of a product with its own base price and
// sparse role-price override table. Price history is not retained; only
// the current values exist at resolution time.
type Variant struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	Name       string             `gorm:"column:name;not null"`
	Size       *string            `gorm:"column:size"`
	BasePrice  *decimal.Decimal   `gorm:"column:base_price;type:numeric(12,2)"`
	RolePrices types.RolePriceMap `gorm:"column:role_prices;type:jsonb;serializer:json"`
	Inventory  int                `gorm:"column:inventory;not null;default:0"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
