package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmerch/campusmerch-backend/pkg/db/models"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/metrics"
	"github.com/campusmerch/campusmerch-backend/pkg/outbox"
	"github.com/campusmerch/campusmerch-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// InventoryReleaser returns reserved stock when an order is cancelled.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error
}

// Service defines order operations beyond repository reads.
type Service interface {
	GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorIsStaff bool) (*models.Order, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error)
	RequestTransition(ctx context.Context, input TransitionInput) error
	RequestFulfillmentTransition(ctx context.Context, input FulfillmentTransitionInput) error
	RecordPayment(ctx context.Context, input RecordPaymentInput) error
	RefundPayments(ctx context.Context, input RefundInput) error
	AuditTotals(ctx context.Context, afterNumber int64, limit int) ([]TotalsMismatch, int64, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory InventoryReleaser
	m         *metrics.Metrics
}

// OrderStatusChangedEvent is emitted whenever an order moves along its
// lifecycle, including cancellation.
type OrderStatusChangedEvent struct {
	OrderID            uuid.UUID                 `json:"order_id"`
	OrderNumber        int64                     `json:"order_number"`
	BuyerID            uuid.UUID                 `json:"buyer_id"`
	From               enums.OrderStatus         `json:"from"`
	To                 enums.OrderStatus         `json:"to"`
	CancellationReason *enums.CancellationReason `json:"cancellation_reason,omitempty"`
}

// FulfillmentStatusChangedEvent is emitted when production state moves.
type FulfillmentStatusChangedEvent struct {
	OrderID       uuid.UUID               `json:"order_id"`
	FulfillmentID uuid.UUID               `json:"fulfillment_id"`
	From          enums.FulfillmentStatus `json:"from"`
	To            enums.FulfillmentStatus `json:"to"`
}

// PaymentRecordedEvent is emitted for each payment entry and refund sweep.
type PaymentRecordedEvent struct {
	OrderID       uuid.UUID                 `json:"order_id"`
	PaymentID     *uuid.UUID                `json:"payment_id,omitempty"`
	Amount        decimal.Decimal           `json:"amount"`
	Status        enums.PaymentRecordStatus `json:"status"`
	PaymentStatus enums.PaymentStatus       `json:"payment_status"`
}

// NewService builds an order service with the required dependencies.
// Metrics may be nil; all its methods tolerate a nil receiver.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, inventory InventoryReleaser, m *metrics.Metrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outboxSvc,
		inventory: inventory,
		m:         m,
	}, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, actorID uuid.UUID, actorIsStaff bool) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actorIsStaff && order.BuyerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListBuyerOrders(ctx, buyerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) RequestTransition(ctx context.Context, input TransitionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Buyers may only cancel their own pending orders; every other
		// move is staff-only.
		if !input.ActorIsStaff {
			if order.BuyerID != input.ActorID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to buyer")
			}
			if input.Target != enums.OrderStatusCancelled || order.Status != enums.OrderStatusPending {
				return pkgerrors.New(pkgerrors.CodeForbidden, "buyers can only cancel pending orders")
			}
		}

		if err := ValidateOrderTransition(order, input.Target, input.Reason); err != nil {
			return err
		}

		from := order.Status
		now := time.Now()
		updates := map[string]any{"status": input.Target}
		switch input.Target {
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
			updates["cancellation_reason"] = input.Reason
		}

		affected, err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}

		if input.Target == enums.OrderStatusCancelled {
			for _, item := range order.Items {
				if item.VariantID == nil || item.Quantity <= 0 {
					continue
				}
				if err := s.inventory.Release(ctx, tx, *item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
			if order.Fulfillment != nil && !order.Fulfillment.Status.IsTerminal() {
				if err := repo.UpdateFulfillment(ctx, order.Fulfillment.ID, map[string]any{
					"status": enums.FulfillmentStatusCancelled,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel fulfillment")
				}
			}
		}

		message := fmt.Sprintf("order moved from %s to %s", from, input.Target)
		if input.Target == enums.OrderStatusCancelled && input.Reason != nil {
			message = fmt.Sprintf("order cancelled: %s", *input.Reason)
		}
		if err := repo.AppendStatusLog(ctx, &models.OrderStatusLog{
			OrderID:   order.ID,
			Status:    input.Target.String(),
			Message:   message,
			CreatedBy: &input.ActorID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Staff: input.ActorIsStaff},
			Data: OrderStatusChangedEvent{
				OrderID:            order.ID,
				OrderNumber:        order.OrderNumber,
				BuyerID:            order.BuyerID,
				From:               from,
				To:                 input.Target,
				CancellationReason: input.Reason,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return err
	}
	s.m.IncOrderTransition(input.Target.String())
	return nil
}

func (s *service) RequestFulfillmentTransition(ctx context.Context, input FulfillmentTransitionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		fulfillment, err := repo.FindFulfillment(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment")
		}

		if err := ValidateFulfillmentTransition(fulfillment.Status, input.Target); err != nil {
			return err
		}

		from := fulfillment.Status
		updates := map[string]any{"status": input.Target}
		if input.Notes != nil {
			updates["notes"] = input.Notes
		}
		if input.Target == enums.FulfillmentStatusCompleted {
			updates["completed_at"] = time.Now()
		}
		if err := repo.UpdateFulfillment(ctx, fulfillment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update fulfillment status")
		}

		if err := repo.AppendStatusLog(ctx, &models.OrderStatusLog{
			OrderID:   input.OrderID,
			Status:    input.Target.String(),
			Message:   fmt.Sprintf("fulfillment moved from %s to %s", from, input.Target),
			CreatedBy: &input.ActorID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status log")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventFulfillmentStatusChanged,
			AggregateType: enums.AggregateFulfillment,
			AggregateID:   fulfillment.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Staff: true},
			Data: FulfillmentStatusChangedEvent{
				OrderID:       input.OrderID,
				FulfillmentID: fulfillment.ID,
				From:          from,
				To:            input.Target,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) RecordPayment(ctx context.Context, input RecordPaymentInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot record payment on a cancelled order")
		}

		payment := &models.Payment{
			OrderID:    order.ID,
			Amount:     input.Amount,
			Status:     enums.PaymentRecordStatusPending,
			Reference:  input.Reference,
			RecordedBy: &input.ActorID,
		}
		if input.Confirmed {
			now := time.Now()
			payment.Status = enums.PaymentRecordStatusConfirmed
			payment.ConfirmedAt = &now
		}
		payment, err = repo.CreatePayment(ctx, payment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		payments, err := repo.FindPaymentsByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payments")
		}
		derived := DerivePaymentStatus(order.TotalAmount, payments)
		if derived != order.PaymentStatus {
			if err := ValidatePaymentTransition(order.PaymentStatus, derived, order.Status); err != nil {
				return err
			}
			affected, err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
				"payment_status": derived,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
			}
			if affected == 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Staff: true},
			Data: PaymentRecordedEvent{
				OrderID:       order.ID,
				PaymentID:     &payment.ID,
				Amount:        payment.Amount,
				Status:        payment.Status,
				PaymentStatus: derived,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) RefundPayments(ctx context.Context, input RefundInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := ValidatePaymentTransition(order.PaymentStatus, enums.PaymentStatusRefunded, order.Status); err != nil {
			return err
		}

		if err := repo.MarkPaymentsRefunded(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payments refunded")
		}
		affected, err := repo.UpdateOrderGuarded(ctx, order.ID, order.Version, map[string]any{
			"payment_status": enums.PaymentStatusRefunded,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}

		refunded := decimal.Zero
		payments, err := repo.FindPaymentsByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payments")
		}
		for _, payment := range payments {
			if payment.Status == enums.PaymentRecordStatusRefunded {
				refunded = refunded.Add(payment.Amount)
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Staff: true},
			Data: PaymentRecordedEvent{
				OrderID:       order.ID,
				Amount:        refunded,
				Status:        enums.PaymentRecordStatusRefunded,
				PaymentStatus: enums.PaymentStatusRefunded,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// AuditTotals recomputes order totals for a page of orders and reports
// the ones whose stored total disagrees. It returns the highest order
// number scanned so callers can resume from there.
func (s *service) AuditTotals(ctx context.Context, afterNumber int64, limit int) ([]TotalsMismatch, int64, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.repo.ListOrdersForAudit(ctx, afterNumber, limit)
	if err != nil {
		return nil, afterNumber, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders for audit")
	}

	var mismatches []TotalsMismatch
	last := afterNumber
	for _, order := range rows {
		last = order.OrderNumber
		recomputed := ComputeTotal(order.Items, order.DiscountAmount)
		if !recomputed.Equal(order.TotalAmount) {
			mismatches = append(mismatches, TotalsMismatch{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Stored:      order.TotalAmount,
				Recomputed:  recomputed,
			})
		}
	}
	return mismatches, last, nil
}
