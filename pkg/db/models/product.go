package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

// Product is a merchandise listing. The posting owner's affiliation is
// the "home organization" used during price resolution. Products without
// variants fall back to the product-level price fields.
type Product struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID          uuid.UUID          `gorm:"column:owner_id;type:uuid;not null"`
	OwnerAffiliation *enums.Affiliation `gorm:"column:owner_affiliation;type:text"`
	Title            string             `gorm:"column:title;not null"`
	Description      *string            `gorm:"column:description"`
	BasePrice        *decimal.Decimal   `gorm:"column:base_price;type:numeric(12,2)"`
	RolePrices       types.RolePriceMap `gorm:"column:role_prices;type:jsonb;serializer:json"`
	Sizes            pq.StringArray     `gorm:"column:sizes;type:text[]"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	Variants         []Variant          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
