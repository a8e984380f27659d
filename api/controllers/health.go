package controllers

import (
	"net/http"

	"github.com/campusmerch/campusmerch-backend/api/responses"
	"github.com/campusmerch/campusmerch-backend/pkg/config"
	"github.com/campusmerch/campusmerch-backend/pkg/db"
	pkgerrors "github.com/campusmerch/campusmerch-backend/pkg/errors"
	"github.com/campusmerch/campusmerch-backend/pkg/logger"
	"github.com/campusmerch/campusmerch-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CampusMerch-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the hard dependencies; any failure reports not ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CampusMerch-Env", cfg.App.Env)

		checks := map[string]string{}

		if dbP == nil {
			checks["database"] = "not configured"
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["database"] = err.Error()
		}

		if redisP == nil {
			checks["redis"] = "not configured"
		} else if err := redisP.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
		}

		if len(checks) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
