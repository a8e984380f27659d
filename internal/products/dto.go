package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

// Viewer identifies who is looking at the catalog. Anonymous viewers
// carry nil fields and resolve to OTHERS pricing.
type Viewer struct {
	Role        *enums.Role
	Affiliation *enums.Affiliation
}

// PricingView is the display pricing block attached to catalog payloads.
type PricingView struct {
	Display         string     `json:"display"`
	OriginalDisplay *string    `json:"original_display,omitempty"`
	AppliedRole     enums.Role `json:"applied_role"`
	IsRange         bool       `json:"is_range"`
	IsFallback      bool       `json:"is_fallback"`
}

// VariantView is a purchasable SKU in catalog payloads.
type VariantView struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Size      *string     `json:"size,omitempty"`
	Inventory int         `json:"inventory"`
	Pricing   PricingView `json:"pricing"`
}

// Summary is the catalog list row.
type Summary struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	IsActive  bool        `json:"is_active"`
	Pricing   PricingView `json:"pricing"`
	CreatedAt time.Time   `json:"created_at"`
}

// ListResult wraps a catalog page.
type ListResult struct {
	Products   []Summary `json:"products"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// Detail is the full catalog payload for one product.
type Detail struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Sizes       []string      `json:"sizes,omitempty"`
	IsActive    bool          `json:"is_active"`
	Pricing     PricingView   `json:"pricing"`
	Variants    []VariantView `json:"variants"`
	CreatedAt   time.Time     `json:"created_at"`
}

// VariantInput describes one variant on create/update.
type VariantInput struct {
	ID         *uuid.UUID         `json:"id,omitempty"`
	Name       string             `json:"name" validate:"required"`
	Size       *string            `json:"size,omitempty"`
	BasePrice  *decimal.Decimal   `json:"base_price,omitempty"`
	RolePrices types.RolePriceMap `json:"role_prices,omitempty"`
	Inventory  int                `json:"inventory" validate:"gte=0"`
}

// CreateProductInput carries a new listing.
type CreateProductInput struct {
	OwnerID          uuid.UUID
	OwnerAffiliation *enums.Affiliation
	Title            string             `json:"title" validate:"required"`
	Description      *string            `json:"description,omitempty"`
	BasePrice        *decimal.Decimal   `json:"base_price,omitempty"`
	RolePrices       types.RolePriceMap `json:"role_prices,omitempty"`
	Sizes            []string           `json:"sizes,omitempty"`
	Variants         []VariantInput     `json:"variants,omitempty"`
}

// UpdateProductInput carries partial listing changes. Nil fields are
// left untouched; Variants, when present, replaces the variant set.
type UpdateProductInput struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	BasePrice   *decimal.Decimal   `json:"base_price,omitempty"`
	RolePrices  types.RolePriceMap `json:"role_prices,omitempty"`
	Sizes       []string           `json:"sizes,omitempty"`
	IsActive    *bool              `json:"is_active,omitempty"`
	Variants    []VariantInput     `json:"variants,omitempty"`
}
