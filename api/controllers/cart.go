package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/madinabek/flowershop-backend/api/middleware"
	"github.com/madinabek/flowershop-backend/api/responses"
	"github.com/madinabek/flowershop-backend/api/validators"
	cartsvc "github.com/madinabek/flowershop-backend/internal/cart"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

type cartAddRequest struct {
	StockItemID uuid.UUID `json:"stock_item_id" validate:"required"`
}

type cartQuantityRequest struct {
	Qty int `json:"qty" validate:"min=0"`
}

type cartResponse struct {
	Snapshot *cartsvc.Snapshot `json:"snapshot"`
	Totals   cartsvc.Totals    `json:"totals"`
}

// CartFetch returns the session's snapshot together with its running totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, sessionID, err := cartScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, totals, err := svc.Get(r.Context(), shopID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cartResponse{Snapshot: snapshot, Totals: totals})
	}
}

// CartAddItem puts one stem of a stock item into the cart, or bumps the
// quantity when the position already exists.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, sessionID, err := cartScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Add(r.Context(), shopID, sessionID, payload.StockItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// CartUpdateItem sets the absolute quantity of a position. Zero removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, sessionID, err := cartScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stockItemID, err := parseUUIDParam(r, "stockItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.UpdateQuantity(r.Context(), shopID, sessionID, stockItemID, payload.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// CartRemoveItem drops a position regardless of its quantity.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, sessionID, err := cartScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stockItemID, err := parseUUIDParam(r, "stockItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Remove(r.Context(), shopID, sessionID, stockItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, snapshot)
	}
}

// CartClear wipes the whole snapshot, typically after a successful checkout.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, sessionID, err := cartScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), shopID, sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func cartScope(r *http.Request) (uuid.UUID, string, error) {
	shopID := middleware.ShopIDFromContext(r.Context())
	if shopID == uuid.Nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeValidation, "shop context missing")
	}
	sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
	if sessionID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeValidation, "X-Session-Id header required")
	}
	return shopID, sessionID, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").WithDetails(map[string]any{"field": name})
	}
	return value, nil
}
