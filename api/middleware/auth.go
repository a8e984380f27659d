package middleware

import (
	"net/http"
	"strings"

	"github.com/campusmerch/campusmerch-backend/api/responses"
	pkgAuth "github.com/campusmerch/campusmerch-backend/pkg/auth"
	"github.com/campusmerch/campusmerch-backend/pkg/config"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authHandler(cfg, logg, true)
}

// AuthOptional seeds the actor when a valid bearer token is present but
// lets anonymous requests through. A malformed or forged token is still
// rejected rather than silently downgraded to anonymous.
func AuthOptional(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authHandler(cfg, logg, false)
}

func authHandler(cfg config.JWTConfig, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			actor := Actor{
				UserID:      claims.UserID,
				Role:        claims.Role,
				Affiliation: claims.Affiliation,
				Staff:       claims.Staff,
			}
			ctx := WithActor(r.Context(), actor)

			if logg != nil {
				fields := map[string]any{
					"user_id": actor.UserID.String(),
					"staff":   actor.Staff,
				}
				if actor.Role != nil {
					fields["buyer_role"] = actor.Role.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff gates staff-only routes. It assumes Auth already ran.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok || !actor.Staff {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
