package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/campusmerch/campusmerch-backend/api/middleware"
	"github.com/campusmerch/campusmerch-backend/api/responses"
	"github.com/campusmerch/campusmerch-backend/api/validators"
	"github.com/campusmerch/campusmerch-backend/internal/orders"
	"github.com/campusmerch/campusmerch-backend/pkg/enums"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/pagination"
)

type transitionRequest struct {
	Target string  `json:"target" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

type fulfillmentRequest struct {
	Target string  `json:"target" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reference *string         `json:"reference,omitempty"`
	Confirmed bool            `json:"confirmed"`
}

func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOrders(r.Context(), actor.UserID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID, actor.UserID, actor.Staff)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TransitionOrder applies a staff-requested order status change.
func TransitionOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		var reason *enums.CancellationReason
		if req.Reason != nil {
			parsed, err := enums.ParseCancellationReason(*req.Reason)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cancellation reason"))
				return
			}
			reason = &parsed
		}

		input := orders.TransitionInput{
			OrderID:      orderID,
			Target:       target,
			Reason:       reason,
			ActorID:      actor.UserID,
			ActorIsStaff: actor.Staff,
		}
		if err := svc.RequestTransition(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(target)})
	}
}

// CancelOrder lets a buyer cancel their own pending order. The reason is
// fixed: self-service cancellations are always customer requests.
func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason := enums.CancellationReasonCustomerRequest
		input := orders.TransitionInput{
			OrderID:      orderID,
			Target:       enums.OrderStatusCancelled,
			Reason:       &reason,
			ActorID:      actor.UserID,
			ActorIsStaff: actor.Staff,
		}
		if err := svc.RequestTransition(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(enums.OrderStatusCancelled)})
	}
}

func TransitionFulfillment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req fulfillmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseFulfillmentStatus(req.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		input := orders.FulfillmentTransitionInput{
			OrderID: orderID,
			Target:  target,
			Notes:   req.Notes,
			ActorID: actor.UserID,
		}
		if err := svc.RequestFulfillmentTransition(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(target)})
	}
}

func RecordPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recordPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.RecordPaymentInput{
			OrderID:   orderID,
			Amount:    req.Amount,
			Reference: req.Reference,
			Confirmed: req.Confirmed,
			ActorID:   actor.UserID,
		}
		if err := svc.RecordPayment(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "recorded"})
	}
}

func RefundPayments(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, _ := middleware.ActorFromContext(r.Context())

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RefundPayments(r.Context(), orders.RefundInput{OrderID: orderID, ActorID: actor.UserID}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "refunded"})
	}
}
