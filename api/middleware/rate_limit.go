package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/madinabek/flowershop-backend/api/responses"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
)

const (
	rateLimitWindow   = time.Minute
	rateLimitPerShop  = 300
	rateLimitFallback = "anonymous"
)

// Limiter is the slice of the redis client the rate limiter needs.
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit applies a fixed per-shop request budget over a one minute window.
// Redis outages fail open so a cache incident never takes the API down.
func RateLimit(store Limiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				next.ServeHTTP(w, r)
				return
			}

			scope := rateLimitFallback
			if shopID := ShopIDFromContext(r.Context()); shopID != uuid.Nil {
				scope = shopID.String()
			}

			allowed, _, err := store.FixedWindowAllow(r.Context(), "api:"+scope, rateLimitPerShop, rateLimitWindow)
			if err != nil {
				if logg != nil {
					logg.Warn(r.Context(), "rate limit check failed, failing open")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
