package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

// AggregateResult is the combined display price for a multi-variant
// product. When variants resolve to different prices the result is a
// range; otherwise it collapses to a single price.
type AggregateResult struct {
	Low             decimal.Decimal
	High            decimal.Decimal
	AppliedRole     enums.Role
	IsRange         bool
	IsFallback      bool
	Display         string
	OriginalDisplay *string
}

// Aggregate resolves every variant for the buyer and combines the
// results. Callers must not pass zero variants; products without
// variants use the product-level price through Resolve directly.
func Aggregate(variants []VariantPricing, actorRole *enums.Role, actorAffiliation, ownerAffiliation *enums.Affiliation) (AggregateResult, error) {
	if len(variants) == 0 {
		return AggregateResult{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one variant is required")
	}

	first := Resolve(variants[0], actorRole, actorAffiliation, ownerAffiliation)
	low, high := first.UnitPrice, first.UnitPrice
	role := first.AppliedRole
	sameRole := true
	allFallback := first.IsFallback

	for _, variant := range variants[1:] {
		resolved := Resolve(variant, actorRole, actorAffiliation, ownerAffiliation)
		if resolved.UnitPrice.LessThan(low) {
			low = resolved.UnitPrice
		}
		if resolved.UnitPrice.GreaterThan(high) {
			high = resolved.UnitPrice
		}
		if resolved.AppliedRole != role {
			sameRole = false
		}
		if !resolved.IsFallback {
			allFallback = false
		}
	}

	if !sameRole {
		role = enums.RoleOthers
	}

	result := AggregateResult{
		Low:         low,
		High:        high,
		AppliedRole: role,
		IsFallback:  allFallback,
	}

	if low.Equal(high) {
		result.Display = types.FormatPeso(low)
		if len(variants) == 1 {
			result.OriginalDisplay = first.OriginalDisplay
		}
		return result, nil
	}

	result.IsRange = true
	result.Display = fmt.Sprintf("%s - %s", types.FormatPeso(low), types.FormatPeso(high))
	return result, nil
}
