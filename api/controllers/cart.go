package controllers

import (
	"net/http"

	"github.com/campusmerch/campusmerch-backend/api/middleware"
	"github.com/campusmerch/campusmerch-backend/api/responses"
	"github.com/campusmerch/campusmerch-backend/api/validators"
	"github.com/campusmerch/campusmerch-backend/internal/cart"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
)

type upsertCartRequest struct {
	Items []cart.UpsertItemInput `json:"items" validate:"required,dive"`
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		view, err := svc.GetCart(r.Context(), actor.UserID, actor.Role, actor.Affiliation)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// UpsertCart replaces the buyer's active cart with the submitted lines.
func UpsertCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req upsertCartRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpsertCart(r.Context(), cart.UpsertInput{
			BuyerID:     actor.UserID,
			Role:        actor.Role,
			Affiliation: actor.Affiliation,
			Items:       req.Items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		if err := svc.ClearCart(r.Context(), actor.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
