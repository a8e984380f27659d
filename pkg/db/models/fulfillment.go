package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// Fulfillment tracks physical production and shipping for an order. Its
// status progresses independently of the order status.
type Fulfillment struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID               `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status      enums.FulfillmentStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	Notes       *string                 `gorm:"column:notes"`
	CompletedAt *time.Time              `gorm:"column:completed_at"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
