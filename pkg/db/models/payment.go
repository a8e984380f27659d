package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// Payment is a single payment record. Orders may accumulate several
// partial payments; the order-level payment status is derived from the
// full set rather than mirroring any one record.
type Payment struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	Amount      decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.PaymentRecordStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	Reference   *string                   `gorm:"column:reference"`
	RecordedBy  *uuid.UUID                `gorm:"column:recorded_by;type:uuid"`
	ConfirmedAt *time.Time                `gorm:"column:confirmed_at"`
	RefundedAt  *time.Time                `gorm:"column:refunded_at"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
