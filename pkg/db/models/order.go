package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// Order is the aggregate produced at checkout. It is mutated only through
// the lifecycle state machine and soft-deleted, never removed.
//
// Invariants:
//   - TotalAmount = sum(item price * qty) - DiscountAmount, clamped to >= 0
//   - CancellationReason is set iff Status == CANCELLED
//   - Status and PaymentStatus only move along their transition tables
type Order struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        int64                     `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID            uuid.UUID                 `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status             enums.OrderStatus         `gorm:"column:status;type:text;not null;default:'PENDING'"`
	PaymentStatus      enums.PaymentStatus       `gorm:"column:payment_status;type:text;not null;default:'PENDING'"`
	CancellationReason *enums.CancellationReason `gorm:"column:cancellation_reason;type:text"`
	TotalAmount        decimal.Decimal           `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountAmount     decimal.Decimal           `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	EstimatedDelivery  *time.Time                `gorm:"column:estimated_delivery"`
	Version            int64                     `gorm:"column:version;not null;default:1"`
	Items              []OrderItem               `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Fulfillment        *Fulfillment              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments           []Payment                 `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusLogs         []OrderStatusLog          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	DeliveredAt        *time.Time                `gorm:"column:delivered_at"`
	CancelledAt        *time.Time                `gorm:"column:cancelled_at"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt          gorm.DeletedAt            `gorm:"column:deleted_at;index"`
}
