package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/pagination"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Unscoped().
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Fulfillment").
		Preload("Payments").
		Preload("StatusLogs", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	pageSize := pagination.NormalizeLimit(params.Limit)
	hasMore := len(rows) > pageSize
	if hasMore {
		rows = rows[:pageSize]
	}
	for _, row := range rows {
		itemCount := 0
		for _, item := range row.Items {
			itemCount += item.Quantity
		}
		list.Orders = append(list.Orders, OrderSummary{
			ID:                row.ID,
			OrderNumber:       row.OrderNumber,
			Status:            row.Status,
			PaymentStatus:     row.PaymentStatus,
			TotalAmount:       row.TotalAmount,
			TotalDisplay:      types.FormatPeso(row.TotalAmount),
			ItemCount:         itemCount,
			EstimatedDelivery: row.EstimatedDelivery,
			CreatedAt:         row.CreatedAt,
		})
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) ListOrdersForAudit(ctx context.Context, afterNumber int64, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number > ?", afterNumber).
		Order("order_number ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// UpdateOrderGuarded applies updates only when the stored version still
// matches, bumping the version in the same statement. The returned row
// count is zero when another writer won the race.
func (r *repository) UpdateOrderGuarded(ctx context.Context, orderID uuid.UUID, version int64, updates map[string]any) (int64, error) {
	updates["version"] = version + 1
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", orderID, version).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) FindFulfillment(ctx context.Context, orderID uuid.UUID) (*models.Fulfillment, error) {
	var fulfillment models.Fulfillment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&fulfillment).Error
	if err != nil {
		return nil, err
	}
	return &fulfillment, nil
}

func (r *repository) UpdateFulfillment(ctx context.Context, fulfillmentID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Fulfillment{}).
		Where("id = ?", fulfillmentID).
		Updates(updates).Error
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *repository) FindPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *repository) MarkPaymentsRefunded(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ? AND status = ?", orderID, enums.PaymentRecordStatusConfirmed).
		Updates(map[string]any{
			"status":      enums.PaymentRecordStatusRefunded,
			"refunded_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *repository) AppendStatusLog(ctx context.Context, log *models.OrderStatusLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
