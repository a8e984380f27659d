package cart

import (
	"github.com/google/uuid"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
)

// UpsertItemInput is one desired cart line.
type UpsertItemInput struct {
	ProductID    uuid.UUID  `json:"product_id" validate:"required"`
	VariantID    *uuid.UUID `json:"variant_id,omitempty"`
	Quantity     int        `json:"quantity" validate:"required,gt=0"`
	Size         *string    `json:"size,omitempty"`
	CustomerNote *string    `json:"customer_note,omitempty"`
}

// UpsertInput replaces the buyer's active cart contents.
type UpsertInput struct {
	BuyerID     uuid.UUID
	Role        *enums.Role
	Affiliation *enums.Affiliation
	Items       []UpsertItemInput
}

// ItemView is a cart line with pricing resolved for the viewing buyer.
// Nothing here is persisted; checkout re-resolves before snapshotting.
type ItemView struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	VariantID       *uuid.UUID `json:"variant_id,omitempty"`
	Name            string     `json:"name"`
	Quantity        int        `json:"quantity"`
	Size            *string    `json:"size,omitempty"`
	CustomerNote    *string    `json:"customer_note,omitempty"`
	UnitDisplay     string     `json:"unit_display"`
	OriginalDisplay *string    `json:"original_display,omitempty"`
	AppliedRole     enums.Role `json:"applied_role"`
	LineDisplay     string     `json:"line_display"`
}

// View is the buyer-facing cart representation.
type View struct {
	ID           uuid.UUID  `json:"id"`
	Items        []ItemView `json:"items"`
	TotalDisplay string     `json:"total_display"`
}
