package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/types"
)

func TestAggregateRejectsZeroVariants(t *testing.T) {
	_, err := Aggregate(nil, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestAggregateSingleVariantMatchesResolve(t *testing.T) {
	variant := jerseyVariant()
	role := rolePtr(enums.RoleStudent)
	aff := affPtr(enums.AffiliationCCS)

	resolved := Resolve(variant, role, aff, aff)
	aggregated, err := Aggregate([]VariantPricing{variant}, role, aff, aff)
	require.NoError(t, err)

	assert.False(t, aggregated.IsRange)
	assert.True(t, aggregated.Low.Equal(resolved.UnitPrice))
	assert.True(t, aggregated.High.Equal(resolved.UnitPrice))
	assert.Equal(t, resolved.AppliedRole, aggregated.AppliedRole)
	assert.Equal(t, resolved.Display, aggregated.Display)
	require.NotNil(t, aggregated.OriginalDisplay)
	assert.Equal(t, *resolved.OriginalDisplay, *aggregated.OriginalDisplay)
}

func TestAggregateDistinctPricesProduceRange(t *testing.T) {
	variants := []VariantPricing{
		{BasePrice: amount("400")},
		{BasePrice: amount("600")},
	}
	result, err := Aggregate(variants, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))
	require.NoError(t, err)

	assert.True(t, result.IsRange)
	assert.True(t, result.Low.Equal(decimal.NewFromInt(400)))
	assert.True(t, result.High.Equal(decimal.NewFromInt(600)))
	assert.Equal(t, "₱400.00 - ₱600.00", result.Display)
	assert.Nil(t, result.OriginalDisplay)
}

func TestAggregateIdenticalPricesCollapse(t *testing.T) {
	variants := []VariantPricing{
		{BasePrice: amount("350")},
		{BasePrice: amount("350")},
		{BasePrice: amount("350")},
	}
	result, err := Aggregate(variants, nil, nil, nil)
	require.NoError(t, err)

	assert.False(t, result.IsRange)
	assert.Equal(t, "₱350.00", result.Display)
}

func TestAggregateMixedAppliedRolesForcedToOthers(t *testing.T) {
	variants := []VariantPricing{
		{
			BasePrice:  amount("500"),
			RolePrices: types.RolePriceMap{"STUDENT": decimal.RequireFromString("400")},
		},
		{BasePrice: amount("500")},
	}
	result, err := Aggregate(variants, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))
	require.NoError(t, err)

	assert.Equal(t, enums.RoleOthers, result.AppliedRole)
	assert.True(t, result.IsRange)
}

func TestAggregateUniformAppliedRoleKept(t *testing.T) {
	overrides := types.RolePriceMap{"STUDENT": decimal.RequireFromString("420")}
	variants := []VariantPricing{
		{BasePrice: amount("500"), RolePrices: overrides},
		{BasePrice: amount("550"), RolePrices: overrides},
	}
	result, err := Aggregate(variants, rolePtr(enums.RoleStudent), affPtr(enums.AffiliationCCS), affPtr(enums.AffiliationCCS))
	require.NoError(t, err)

	assert.Equal(t, enums.RoleStudent, result.AppliedRole)
	assert.False(t, result.IsRange)
	assert.Equal(t, "₱420.00", result.Display)
}

func TestAggregateAllFallbackVariants(t *testing.T) {
	variants := []VariantPricing{{}, {}}
	result, err := Aggregate(variants, nil, nil, nil)
	require.NoError(t, err)

	assert.True(t, result.IsFallback)
	assert.False(t, result.IsRange)
	assert.Equal(t, "₱0.00", result.Display)
}
