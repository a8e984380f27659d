package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// TransitionInput carries a requested order status change.
type TransitionInput struct {
	OrderID      uuid.UUID
	Target       enums.OrderStatus
	Reason       *enums.CancellationReason
	ActorID      uuid.UUID
	ActorIsStaff bool
}

// FulfillmentTransitionInput carries a requested fulfillment status change.
type FulfillmentTransitionInput struct {
	OrderID uuid.UUID
	Target  enums.FulfillmentStatus
	Notes   *string
	ActorID uuid.UUID
}

// RecordPaymentInput captures a payment entered against an order.
type RecordPaymentInput struct {
	OrderID   uuid.UUID
	Amount    decimal.Decimal
	Reference *string
	Confirmed bool
	ActorID   uuid.UUID
}

// RefundInput marks every confirmed payment on a cancelled order refunded.
type RefundInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
}

// OrderSummary is the buyer-facing list row.
type OrderSummary struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       int64               `json:"order_number"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentStatus     enums.PaymentStatus `json:"payment_status"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	TotalDisplay      string              `json:"total_display"`
	ItemCount         int                 `json:"item_count"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// OrderList wraps paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// TotalsMismatch reports an order whose stored total disagrees with the
// total recomputed from its line items.
type TotalsMismatch struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	Stored      decimal.Decimal `json:"stored"`
	Recomputed  decimal.Decimal `json:"recomputed"`
}
