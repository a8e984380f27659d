package types

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal-as-string-or-number value into a
// decimal. It returns nil for absent, non-numeric, or negative input;
// malformed money is degraded at the boundary, never surfaced as an
// error, so a price can always be rendered.
func ParseAmount(raw any) *decimal.Decimal {
	var parsed decimal.Decimal
	var err error

	switch v := raw.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		parsed = v
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		parsed = *v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		parsed, err = decimal.NewFromString(trimmed)
	case json.Number:
		parsed, err = decimal.NewFromString(v.String())
	case float64:
		parsed = decimal.NewFromFloat(v)
	case int:
		parsed = decimal.NewFromInt(int64(v))
	case int64:
		parsed = decimal.NewFromInt(v)
	default:
		return nil
	}
	if err != nil || parsed.IsNegative() {
		return nil
	}
	return &parsed
}

// FormatPeso renders an amount as a peso display string, e.g. ₱1,234.50.
func FormatPeso(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	whole := parts[0]

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	out := "₱" + grouped.String() + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}
