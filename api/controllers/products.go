package controllers

import (
	"net/http"
	"strings"

	"github.com/campusmerch/campusmerch-backend/api/middleware"
	"github.com/campusmerch/campusmerch-backend/api/responses"
	"github.com/campusmerch/campusmerch-backend/api/validators"
	"github.com/campusmerch/campusmerch-backend/internal/products"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/pagination"
)

func viewerFromRequest(r *http.Request) products.Viewer {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return products.Viewer{}
	}
	return products.Viewer{Role: actor.Role, Affiliation: actor.Affiliation}
}

// ListProducts serves the storefront catalog with display pricing
// resolved for the viewing buyer.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := products.ListQuery{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
			Search:     strings.TrimSpace(r.URL.Query().Get("q")),
			ActiveOnly: true,
		}

		result, err := svc.ListProducts(r.Context(), viewerFromRequest(r), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetProduct(r.Context(), productID, viewerFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var input products.CreateProductInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OwnerID = actor.UserID
		input.OwnerAffiliation = actor.Affiliation

		detail, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input products.UpdateProductInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
