package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// CartRecord is a buyer's working cart. One active cart exists per buyer;
// checkout marks it converted rather than deleting it.
type CartRecord struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID     uuid.UUID        `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
