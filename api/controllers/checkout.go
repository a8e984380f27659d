package controllers

import (
	"net/http"

	"github.com/campusmerch/campusmerch-backend/api/middleware"
	"github.com/campusmerch/campusmerch-backend/api/responses"
	"github.com/campusmerch/campusmerch-backend/internal/checkout"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
)

// Checkout converts the buyer's active cart into a pending order.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		order, err := svc.Execute(r.Context(), checkout.Input{
			BuyerID:     actor.UserID,
			Role:        actor.Role,
			Affiliation: actor.Affiliation,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, order.ID.String())
			logg.Info(ctx, "checkout.completed")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
