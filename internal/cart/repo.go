package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.CartRecord) (*models.CartRecord, error) {
	if record.Status == "" {
		record.Status = enums.CartStatusActive
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindActiveByBuyer(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("buyer_id = ? AND status = ?", buyerID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ReplaceItems swaps the cart's contents wholesale. Upserts always send
// the full desired state, so reconciling row by row buys nothing.
func (r *repository) ReplaceItems(ctx context.Context, cartID uuid.UUID, items []models.CartItem) error {
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].CartID = cartID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateStatus(ctx context.Context, cartID, buyerID uuid.UUID, status enums.CartStatus) error {
	updates := map[string]any{"status": status}
	if status == enums.CartStatusConverted {
		updates["converted_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	}
	return r.db.WithContext(ctx).
		Model(&models.CartRecord{}).
		Where("id = ? AND buyer_id = ?", cartID, buyerID).
		Updates(updates).Error
}
