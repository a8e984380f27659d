package enums

import "fmt"

// CancellationReason classifies why an order was cancelled. It is set if
// and only if the order status is CANCELLED.
type CancellationReason string

const (
	CancellationReasonOutOfStock      CancellationReason = "OUT_OF_STOCK"
	CancellationReasonCustomerRequest CancellationReason = "CUSTOMER_REQUEST"
	CancellationReasonPaymentFailed   CancellationReason = "PAYMENT_FAILED"
	CancellationReasonOthers          CancellationReason = "OTHERS"
)

var validCancellationReasons = []CancellationReason{
	CancellationReasonOutOfStock,
	CancellationReasonCustomerRequest,
	CancellationReasonPaymentFailed,
	CancellationReasonOthers,
}

// String implements fmt.Stringer.
func (c CancellationReason) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CancellationReason.
func (c CancellationReason) IsValid() bool {
	for _, candidate := range validCancellationReasons {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCancellationReason converts raw input into a CancellationReason.
func ParseCancellationReason(value string) (CancellationReason, error) {
	for _, candidate := range validCancellationReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancellation reason %q", value)
}
