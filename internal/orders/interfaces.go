package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/pagination"
)

// Repository defines persistence operations for order aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	NextOrderNumber(ctx context.Context) (int64, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListOrdersForAudit(ctx context.Context, afterNumber int64, limit int) ([]models.Order, error)
	UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, version int64, updates map[string]any) (int64, error)
	FindFulfillment(ctx context.Context, orderID uuid.UUID) (*models.Fulfillment, error)
	UpdateFulfillment(ctx context.Context, fulfillmentID uuid.UUID, updates map[string]any) error
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error)
	MarkPaymentsRefunded(ctx context.Context, orderID uuid.UUID) error
	AppendStatusLog(ctx context.Context, log *models.OrderStatusLog) error
}
