package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
)

// Transition tables. A status may only move to one of its listed
// successors; terminal states have no successors. Regressions are never
// legal.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:      {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// Payment progression allows skipping DOWNPAYMENT when a single payment
// covers the full amount; it never moves backwards.
var paymentTransitions = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusPending:     {enums.PaymentStatusDownpayment, enums.PaymentStatusPaid},
	enums.PaymentStatusDownpayment: {enums.PaymentStatusPaid, enums.PaymentStatusRefunded},
	enums.PaymentStatusPaid:        {enums.PaymentStatusRefunded},
	enums.PaymentStatusRefunded:    {},
}

var fulfillmentTransitions = map[enums.FulfillmentStatus][]enums.FulfillmentStatus{
	enums.FulfillmentStatusPending:    {enums.FulfillmentStatusProduction, enums.FulfillmentStatusCancelled},
	enums.FulfillmentStatusProduction: {enums.FulfillmentStatusReady, enums.FulfillmentStatusCancelled},
	enums.FulfillmentStatusReady:      {enums.FulfillmentStatusCompleted, enums.FulfillmentStatusCancelled},
	enums.FulfillmentStatusCompleted:  {},
	enums.FulfillmentStatusCancelled:  {},
}

func containsStatus[T comparable](haystack []T, needle T) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

// ValidateOrderTransition checks a requested order status change against
// the transition table, the cancellation-reason rule and the payment
// guard. It inspects only; the caller mutates after a nil return.
func ValidateOrderTransition(order *models.Order, target enums.OrderStatus, reason *enums.CancellationReason) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}
	if !containsStatus(orderTransitions[order.Status], target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, target))
	}

	if target == enums.OrderStatusCancelled {
		if reason == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
		}
		if !reason.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown cancellation reason %q", *reason))
		}
	} else if reason != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is only valid when cancelling")
	}

	if target == enums.OrderStatusDelivered && order.PaymentStatus != enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be delivered before it is fully paid")
	}

	return nil
}

// ValidatePaymentTransition checks a derived payment status change.
// Refunds are only legal once money has changed hands and only while the
// order is cancelled; the schema cannot express that coupling, so it is
// enforced here.
func ValidatePaymentTransition(current, target enums.PaymentStatus, orderStatus enums.OrderStatus) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment status %q", target))
	}
	if current == target {
		return nil
	}
	if !containsStatus(paymentTransitions[current], target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment status cannot move from %s to %s", current, target))
	}
	if target == enums.PaymentStatusRefunded && orderStatus != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "refunds require a cancelled order")
	}
	return nil
}

// ValidateFulfillmentTransition checks a fulfillment status change
// against its transition table.
func ValidateFulfillmentTransition(current, target enums.FulfillmentStatus) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown fulfillment status %q", target))
	}
	if !containsStatus(fulfillmentTransitions[current], target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("fulfillment cannot move from %s to %s", current, target))
	}
	return nil
}

// ComputeTotal recomputes the order total from its line items:
// sum(price * quantity) - discount, clamped to zero.
func ComputeTotal(items []models.OrderItem, discount decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	total = total.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// DerivePaymentStatus folds the order's payment records into the
// aggregate payment view. Confirmed amounts move the order from PENDING
// through DOWNPAYMENT to PAID; refunds that cover everything confirmed
// yield REFUNDED.
func DerivePaymentStatus(total decimal.Decimal, payments []models.Payment) enums.PaymentStatus {
	confirmed := decimal.Zero
	refunded := decimal.Zero
	for _, payment := range payments {
		switch payment.Status {
		case enums.PaymentRecordStatusConfirmed:
			confirmed = confirmed.Add(payment.Amount)
		case enums.PaymentRecordStatusRefunded:
			refunded = refunded.Add(payment.Amount)
		}
	}

	if refunded.IsPositive() && refunded.GreaterThanOrEqual(confirmed) {
		return enums.PaymentStatusRefunded
	}
	if confirmed.IsPositive() && confirmed.GreaterThanOrEqual(total) {
		return enums.PaymentStatusPaid
	}
	if confirmed.IsPositive() {
		return enums.PaymentStatusDownpayment
	}
	return enums.PaymentStatusPending
}
