package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/madinabek/flowershop-backend/api/middleware"
	"github.com/madinabek/flowershop-backend/api/responses"
	"github.com/madinabek/flowershop-backend/api/validators"
	inventorysvc "github.com/madinabek/flowershop-backend/internal/inventory"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
	"github.com/madinabek/flowershop-backend/pkg/pagination"
)

type receiveStockRequest struct {
	Variety       string          `json:"variety" validate:"required"`
	Qty           int             `json:"qty" validate:"required,min=1"`
	Cost          decimal.Decimal `json:"cost" validate:"required"`
	Currency      string          `json:"currency" validate:"required"`
	FxRate        decimal.Decimal `json:"fx_rate" validate:"required"`
	MarkupPercent *int            `json:"markup_percent,omitempty"`
	SalePrice     *int            `json:"sale_price,omitempty"`
}

type adjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// InventoryReceive books an intake batch and reprices the stock item from the
// frozen FX rate.
func InventoryReceive(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := middleware.ShopIDFromContext(r.Context())
		actor := middleware.ActorFromContext(r.Context())

		var payload receiveStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		currency, err := enums.ParseCurrency(payload.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown currency").WithDetails(map[string]any{"currency": payload.Currency}))
			return
		}

		item, err := svc.Receive(r.Context(), inventorysvc.ReceiveInput{
			ShopID:        shopID,
			Variety:       payload.Variety,
			Qty:           payload.Qty,
			Cost:          payload.Cost,
			Currency:      currency,
			FxRate:        payload.FxRate,
			MarkupPercent: payload.MarkupPercent,
			SalePrice:     payload.SalePrice,
			Actor:         actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// InventoryAdjust applies a manual on-hand correction outside of any order.
func InventoryAdjust(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stockItemID, err := parseUUIDParam(r, "stockItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Adjust(r.Context(), inventorysvc.AdjustInput{
			ShopID:      middleware.ShopIDFromContext(r.Context()),
			StockItemID: stockItemID,
			Delta:       payload.Delta,
			Actor:       middleware.ActorFromContext(r.Context()),
			Reason:      payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryList pages through the shop's stock items.
func InventoryList(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := middleware.ShopIDFromContext(r.Context())

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, nextCursor, err := svc.List(r.Context(), shopID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"items":       items,
			"next_cursor": nextCursor,
		})
	}
}

// InventoryDetail returns one stock item with its derived availability.
func InventoryDetail(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stockItemID, err := parseUUIDParam(r, "stockItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), stockItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if item.ShopID != middleware.ShopIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found"))
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryMovements pages through the audit trail of one stock item.
func InventoryMovements(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stockItemID, err := parseUUIDParam(r, "stockItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, nextCursor, err := svc.ListMovements(r.Context(), middleware.ShopIDFromContext(r.Context()), stockItemID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"movements":   movements,
			"next_cursor": nextCursor,
		})
	}
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
