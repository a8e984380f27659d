package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusLog is an append-only record of a status change on an
// order. Rows are only ever inserted, never updated or deleted.
type OrderStatusLog struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	Status    string     `gorm:"column:status;not null"`
	Message   string     `gorm:"column:message;not null"`
	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
