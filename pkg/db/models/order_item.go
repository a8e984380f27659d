package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// OrderItem is a line item created once at checkout. Price, OriginalPrice
// and AppliedRole are permanent snapshots of the resolution performed at
// purchase time; later edits to the variant's pricing never touch them.
type OrderItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID     *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Name          string          `gorm:"column:name;not null"`
	Size          *string         `gorm:"column:size"`
	Quantity      int             `gorm:"column:quantity;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice decimal.Decimal `gorm:"column:original_price;type:numeric(12,2);not null"`
	AppliedRole   enums.Role      `gorm:"column:applied_role;type:text;not null;default:'OTHERS'"`
	CustomerNote  *string         `gorm:"column:customer_note"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
