package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem references a variant while the buyer is still shopping. No
// price is stored here; pricing is resolved fresh at checkout.
type CartItem struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID       uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID    uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID    *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Quantity     int        `gorm:"column:quantity;not null"`
	Size         *string    `gorm:"column:size"`
	CustomerNote *string    `gorm:"column:customer_note"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
