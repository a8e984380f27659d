package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RolePriceMap is a sparse mapping from role label to an override price.
// Absent entries mean no override exists for that role.
type RolePriceMap map[string]decimal.Decimal

// Lookup returns the override price for the given role label, or nil
// when no valid override is present.
func (m RolePriceMap) Lookup(role string) *decimal.Decimal {
	if m == nil {
		return nil
	}
	price, ok := m[role]
	if !ok {
		return nil
	}
	return ParseAmount(price)
}

// UnmarshalJSON accepts overrides encoded as either JSON numbers or
// numeric strings; entries that fail to parse are dropped rather than
// failing the whole map.
func (m *RolePriceMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(RolePriceMap, len(raw))
	for role, value := range raw {
		var asString string
		if err := json.Unmarshal(value, &asString); err == nil {
			if price := ParseAmount(asString); price != nil {
				out[role] = *price
			}
			continue
		}
		var asNumber json.Number
		if err := json.Unmarshal(value, &asNumber); err == nil {
			if price := ParseAmount(asNumber); price != nil {
				out[role] = *price
			}
		}
	}
	*m = out
	return nil
}
