package enums

import "fmt"

// FulfillmentStatus tracks physical production and shipping progress for
// an order, independent of the order status itself.
type FulfillmentStatus string

const (
	FulfillmentStatusPending    FulfillmentStatus = "PENDING"
	FulfillmentStatusProduction FulfillmentStatus = "PRODUCTION"
	FulfillmentStatusReady      FulfillmentStatus = "READY"
	FulfillmentStatusCompleted  FulfillmentStatus = "COMPLETED"
	FulfillmentStatusCancelled  FulfillmentStatus = "CANCELLED"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusProduction,
	FulfillmentStatusReady,
	FulfillmentStatusCompleted,
	FulfillmentStatusCancelled,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (f FulfillmentStatus) IsTerminal() bool {
	return f == FulfillmentStatusCompleted || f == FulfillmentStatusCancelled
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
