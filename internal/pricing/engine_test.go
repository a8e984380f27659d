package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func rolePtr(r enums.Role) *enums.Role { return &r }

func affPtr(a enums.Affiliation) *enums.Affiliation { return &a }

func variantModelWithBase(base *decimal.Decimal) models.Variant {
	return models.Variant{Name: "Home Jersey", BasePrice: base}
}

func jerseyVariant() VariantPricing {
	return VariantPricing{
		BasePrice: amount("500"),
		RolePrices: types.RolePriceMap{
			"STUDENT": decimal.RequireFromString("400"),
			"OTHERS":  decimal.RequireFromString("450"),
		},
	}
}

func TestResolveRoleOverrideOnMatchingAffiliation(t *testing.T) {
	result := Resolve(jerseyVariant(), rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))

	assert.True(t, result.UnitPrice.Equal(decimal.NewFromInt(400)), "unit price %s", result.UnitPrice)
	assert.Equal(t, enums.RoleStudent, result.AppliedRole)
	assert.False(t, result.IsFallback)
	assert.Equal(t, "₱400.00", result.Display)
	require.NotNil(t, result.OriginalDisplay)
	assert.Equal(t, "₱500.00", *result.OriginalDisplay)
}

func TestResolveOthersOverrideOnDifferentAffiliation(t *testing.T) {
	result := Resolve(jerseyVariant(), rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCAS), affPtr(enums.AffiliationCCS))

	assert.True(t, result.UnitPrice.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, enums.RoleOthers, result.AppliedRole)
}

func TestResolveKeepsBaseAndOthersLabelWithoutOverride(t *testing.T) {
	variant := VariantPricing{BasePrice: amount("500")}
	result := Resolve(variant, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))

	// Matching affiliation but no STUDENT override: base price kept and
	// the role label is not upgraded.
	assert.True(t, result.UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, enums.RoleOthers, result.AppliedRole)
	assert.Nil(t, result.OriginalDisplay)
}

func TestResolveAnonymousBuyerGetsBasePrice(t *testing.T) {
	cases := []struct {
		name  string
		role  *enums.Role
		aff   *enums.Affiliation
		owner *enums.Affiliation
	}{
		{name: "missing role", role: nil, aff: affPtr(enums.AffiliationCCS), owner: affPtr(enums.AffiliationCCS)},
		{name: "missing affiliation", role: rolePtr(enums.RoleStudent), aff: nil, owner: affPtr(enums.AffiliationCCS)},
		{name: "missing owner affiliation", role: rolePtr(enums.RoleStudent), aff: affPtr(enums.AffiliationCCS), owner: nil},
		{name: "all missing", role: nil, aff: nil, owner: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Resolve(jerseyVariant(), tc.role, tc.aff, tc.owner)
			assert.True(t, result.UnitPrice.Equal(decimal.NewFromInt(500)))
			assert.Equal(t, enums.RoleOthers, result.AppliedRole)
			assert.False(t, result.IsFallback)
		})
	}
}

func TestResolveMissingBasePriceFallsBackToZero(t *testing.T) {
	result := Resolve(VariantPricing{}, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))

	assert.True(t, result.UnitPrice.IsZero())
	assert.Equal(t, enums.RoleOthers, result.AppliedRole)
	assert.True(t, result.IsFallback)
	assert.Equal(t, "₱0.00", result.Display)
	assert.Nil(t, result.OriginalDisplay)
}

func TestResolveDifferentAffiliationWithoutOthersOverride(t *testing.T) {
	variant := VariantPricing{
		BasePrice:  amount("500"),
		RolePrices: types.RolePriceMap{"STUDENT": decimal.RequireFromString("400")},
	}
	result := Resolve(variant, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCAS), affPtr(enums.AffiliationCCS))

	assert.True(t, result.UnitPrice.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, enums.RoleOthers, result.AppliedRole)
}

func TestResolveUnitPriceNeverNegative(t *testing.T) {
	variants := []VariantPricing{
		jerseyVariant(),
		{},
		{BasePrice: amount("0")},
		{BasePrice: amount("999.99"), RolePrices: types.RolePriceMap{"ALUMNI": decimal.RequireFromString("1.50")}},
	}
	roles := []*enums.Role{nil, rolePtr(enums.RoleStudent), rolePtr(enums.RoleAlumni), rolePtr(enums.RoleOthers)}
	affs := []*enums.Affiliation{nil, affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCAS)}

	for _, v := range variants {
		for _, role := range roles {
			for _, aff := range affs {
				for _, owner := range affs {
					result := Resolve(v, role, aff, owner)
					assert.False(t, result.UnitPrice.IsNegative())
					assert.True(t, result.AppliedRole.IsValid())
				}
			}
		}
	}
}

func TestFromVariantDropsMalformedStoredPrice(t *testing.T) {
	neg := decimal.RequireFromString("-10")
	input := FromVariant(variantModelWithBase(&neg))
	assert.Nil(t, input.BasePrice)

	input = FromVariant(variantModelWithBase(nil))
	assert.Nil(t, input.BasePrice)
}
