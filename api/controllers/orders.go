package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/madinabek/flowershop-backend/api/middleware"
	"github.com/madinabek/flowershop-backend/api/responses"
	"github.com/madinabek/flowershop-backend/api/validators"
	ordersvc "github.com/madinabek/flowershop-backend/internal/orders"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
)

type orderItemRequest struct {
	StockItemID uuid.UUID `json:"stock_item_id" validate:"required"`
	Qty         int       `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	CustomerPhone  string             `json:"customer_phone" validate:"required"`
	RecipientName  string             `json:"recipient_name,omitempty"`
	RecipientPhone string             `json:"recipient_phone,omitempty"`
	DeliveryMethod string             `json:"delivery_method" validate:"required"`
	ClarifyTime    bool               `json:"clarify_time"`
	DeliveryFrom   *time.Time         `json:"delivery_from,omitempty"`
	DeliveryTo     *time.Time         `json:"delivery_to,omitempty"`
	Address        *string            `json:"address,omitempty"`
	Items          []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type transitionOrderRequest struct {
	To string `json:"to" validate:"required"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type rollbackOrderRequest struct {
	Target string `json:"target" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type markIssueRequest struct {
	Type    string `json:"type" validate:"required"`
	Comment string `json:"comment,omitempty"`
}

// OrderCreate runs checkout: it validates the submission, reserves stock and
// persists the order in one transaction.
func OrderCreate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParseDeliveryMethod(payload.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method").WithDetails(map[string]any{"delivery_method": payload.DeliveryMethod}))
			return
		}

		items := make([]ordersvc.OrderItemInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, ordersvc.OrderItemInput{StockItemID: item.StockItemID, Qty: item.Qty})
		}

		order, err := svc.Create(r.Context(), ordersvc.CreateOrderInput{
			ShopID:         middleware.ShopIDFromContext(r.Context()),
			CustomerPhone:  payload.CustomerPhone,
			RecipientName:  payload.RecipientName,
			RecipientPhone: payload.RecipientPhone,
			DeliveryMethod: method,
			ClarifyTime:    payload.ClarifyTime,
			DeliveryFrom:   payload.DeliveryFrom,
			DeliveryTo:     payload.DeliveryTo,
			Address:        payload.Address,
			Items:          items,
			Actor:          middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderList pages through the shop's orders, optionally filtered by status or
// by the issue flag.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := buildOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, nextCursor, err := svc.List(r.Context(), middleware.ShopIDFromContext(r.Context()), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"orders":      orders,
			"next_cursor": nextCursor,
		})
	}
}

// OrderDetail returns one order with its items, scoped to the active shop.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if order.ShopID != middleware.ShopIDFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderTransition advances an order one step along the forward path.
func OrderTransition(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to, err := enums.ParseOrderStatus(payload.To)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{"to": payload.To}))
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			ShopID:  middleware.ShopIDFromContext(r.Context()),
			OrderID: orderID,
			To:      to,
			Actor:   middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderCancel terminates an order with a mandatory reason.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), ordersvc.CancelInput{
			ShopID:  middleware.ShopIDFromContext(r.Context()),
			OrderID: orderID,
			Reason:  payload.Reason,
			Actor:   middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderRollback moves an order exactly one step backwards.
func OrderRollback(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rollbackOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{"target": payload.Target}))
			return
		}

		order, err := svc.Rollback(r.Context(), ordersvc.RollbackInput{
			ShopID:  middleware.ShopIDFromContext(r.Context()),
			OrderID: orderID,
			Target:  target,
			Reason:  payload.Reason,
			Actor:   middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderMarkIssue flags a problem on an order without touching its status.
func OrderMarkIssue(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markIssueRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issueType, err := enums.ParseIssueType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown issue type").WithDetails(map[string]any{"type": payload.Type}))
			return
		}

		order, err := svc.MarkIssue(r.Context(), ordersvc.IssueInput{
			ShopID:  middleware.ShopIDFromContext(r.Context()),
			OrderID: orderID,
			Type:    issueType,
			Comment: payload.Comment,
			Actor:   middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderResolveIssue clears the issue flag.
func OrderResolveIssue(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.ResolveIssue(r.Context(), middleware.ShopIDFromContext(r.Context()), orderID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

func buildOrderFilters(r *http.Request) (ordersvc.ListFilters, error) {
	var filters ordersvc.ListFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{"status": raw})
		}
		filters.Status = &status
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("has_issue")); raw != "" {
		switch raw {
		case "true":
			v := true
			filters.HasIssue = &v
		case "false":
			v := false
			filters.HasIssue = &v
		default:
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "has_issue must be true or false")
		}
	}

	return filters, nil
}
