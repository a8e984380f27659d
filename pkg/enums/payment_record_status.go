package enums

import "fmt"

// PaymentRecordStatus is the status of a single payment record. An order
// may carry several partial payments; the order-level PaymentStatus is
// derived from the set of records.
type PaymentRecordStatus string

const (
	PaymentRecordStatusPending   PaymentRecordStatus = "PENDING"
	PaymentRecordStatusConfirmed PaymentRecordStatus = "CONFIRMED"
	PaymentRecordStatusFailed    PaymentRecordStatus = "FAILED"
	PaymentRecordStatusRefunded  PaymentRecordStatus = "REFUNDED"
)

var validPaymentRecordStatuses = []PaymentRecordStatus{
	PaymentRecordStatusPending,
	PaymentRecordStatusConfirmed,
	PaymentRecordStatusFailed,
	PaymentRecordStatusRefunded,
}

// String implements fmt.Stringer.
func (p PaymentRecordStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentRecordStatus.
func (p PaymentRecordStatus) IsValid() bool {
	for _, candidate := range validPaymentRecordStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentRecordStatus converts raw input into a PaymentRecordStatus.
func ParsePaymentRecordStatus(value string) (PaymentRecordStatus, error) {
	for _, candidate := range validPaymentRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment record status %q", value)
}
