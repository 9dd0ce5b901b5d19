package controllers

import (
	"net/http"

	"github.com/madinabek/flowershop-backend/api/responses"
	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/db"
	"github.com/madinabek/flowershop-backend/pkg/logger"
	pkgredis "github.com/madinabek/flowershop-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Flowershop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when both backing stores answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP pkgredis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Flowershop-Env", cfg.App.Env)

		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}
		healthy := true

		if dbP == nil {
			checks["database"] = "not configured"
			healthy = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "database ping failed", err)
			}
			checks["database"] = "unreachable"
			healthy = false
		}

		if redisP == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := redisP.Ping(r.Context()); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "redis ping failed", err)
			}
			checks["redis"] = "unreachable"
			healthy = false
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": checks,
		})
	}
}
