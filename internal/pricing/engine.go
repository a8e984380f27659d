package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

// VariantPricing is the price data read from a variant (or from the
// product itself when it has no variants). A nil BasePrice means the
// stored value was absent or malformed.
type VariantPricing struct {
	BasePrice  *decimal.Decimal
	RolePrices types.RolePriceMap
}

// Result is the outcome of resolving a buyer-specific price. Resolution
// is total: every input combination produces a renderable result.
type Result struct {
	UnitPrice       decimal.Decimal
	OriginalPrice   decimal.Decimal
	AppliedRole     enums.Role
	IsFallback      bool
	Display         string
	OriginalDisplay *string
}

// FromVariant extracts pricing inputs from a stored variant.
func FromVariant(v models.Variant) VariantPricing {
	return VariantPricing{
		BasePrice:  types.ParseAmount(v.BasePrice),
		RolePrices: v.RolePrices,
	}
}

// FromProduct extracts the product-level fallback pricing used when a
// product exposes no variants.
func FromProduct(p models.Product) VariantPricing {
	return VariantPricing{
		BasePrice:  types.ParseAmount(p.BasePrice),
		RolePrices: p.RolePrices,
	}
}

// Resolve computes the effective unit price for a buyer.
//
// The override table is consulted only when the buyer's role, the
// buyer's affiliation and the product owner's affiliation are all known.
// A buyer from a different organization gets the OTHERS override (or the
// base price); a buyer from the owner's organization gets their role's
// override when one exists. When the affiliations match but no override
// is defined for the role, the base price is kept and the applied role
// stays OTHERS: the label reflects the discount actually applied, not
// the buyer's classification.
//
// Malformed price data never produces an error; it degrades to the base
// price, or to zero when the base price itself is unusable.
func Resolve(variant VariantPricing, actorRole *enums.Role, actorAffiliation, ownerAffiliation *enums.Affiliation) Result {
	if variant.BasePrice == nil || variant.BasePrice.IsNegative() {
		return Result{
			UnitPrice:     decimal.Zero,
			OriginalPrice: decimal.Zero,
			AppliedRole:   enums.RoleOthers,
			IsFallback:    true,
			Display:       types.FormatPeso(decimal.Zero),
		}
	}

	base := *variant.BasePrice
	unit := base
	applied := enums.RoleOthers

	if actorRole != nil && actorAffiliation != nil && ownerAffiliation != nil {
		if *actorAffiliation != *ownerAffiliation {
			if override := variant.RolePrices.Lookup(enums.RoleOthers.String()); override != nil {
				unit = *override
			}
		} else if override := variant.RolePrices.Lookup(actorRole.String()); override != nil {
			unit = *override
			applied = *actorRole
		}
	}

	// Overrides are validated at lookup, but guard anyway: a price that
	// ends up unusable reverts to the base price.
	if unit.IsNegative() {
		unit = base
	}

	result := Result{
		UnitPrice:     unit,
		OriginalPrice: base,
		AppliedRole:   applied,
		Display:       types.FormatPeso(unit),
	}
	if !unit.Equal(base) {
		formatted := types.FormatPeso(base)
		result.OriginalDisplay = &formatted
	}
	return result
}
