package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/madinabek/flowershop-backend/api/responses"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
)

const (
	shopIDHeader = "X-Shop-Id"
	actorHeader  = "X-Actor"

	defaultActor = "staff"
)

// ShopContext resolves the shop the request operates on from the X-Shop-Id
// header and makes it available to downstream handlers. Staff routes cannot
// run without it.
func ShopContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(shopIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Shop-Id header required"))
				return
			}

			shopID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Shop-Id header must be a uuid"))
				return
			}

			actor := strings.TrimSpace(r.Header.Get(actorHeader))
			if actor == "" {
				actor = defaultActor
			}

			ctx := WithShopID(r.Context(), shopID)
			ctx = WithActor(ctx, actor)
			if logg != nil {
				ctx = logg.WithShopID(ctx, shopID.String())
				ctx = logg.WithActor(ctx, actor)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
