package controllers

import (
	"net/http"

	"github.com/streampoints/raffle-backend/api/responses"
	"github.com/streampoints/raffle-backend/pkg/config"
	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/logger"
	"github.com/streampoints/raffle-backend/pkg/redis"
)

const envHeader = "X-Raffle-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores and reports per-dependency status.
// Any failing dependency degrades the response to 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		ping := func(name string, check func() error) {
			if check == nil {
				checks[name] = "skipped"
				return
			}
			if err := check(); err != nil {
				checks[name] = "down"
				healthy = false
				if logg != nil {
					ctx := logg.WithField(r.Context(), "dependency", name)
					logg.Error(ctx, "readiness check failed", err)
				}
				return
			}
			checks[name] = "up"
		}

		var dbCheck, redisCheck func() error
		if dbP != nil {
			dbCheck = func() error { return dbP.Ping(r.Context()) }
		}
		if redisP != nil {
			redisCheck = func() error { return redisP.Ping(r.Context()) }
		}
		ping("database", dbCheck)
		ping("redis", redisCheck)

		status := "ready"
		httpStatus := http.StatusOK
		if !healthy {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		responses.WriteSuccessStatus(w, httpStatus, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
