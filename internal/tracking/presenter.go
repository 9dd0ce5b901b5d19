package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/security"
)

type orderLoader interface {
	FindByTrackingToken(ctx context.Context, token string) (*models.Order, error)
}

// ItemView is one order position on the public page: name and quantity only.
type ItemView struct {
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// View is the whitelisted projection rendered to the customer. Everything on
// it is already masked; internal identifiers never appear here.
type View struct {
	Status         enums.TrackingStatus `json:"status"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	MaskedPhone    string               `json:"masked_phone"`
	MaskedAddress  string               `json:"masked_address,omitempty"`
	DeliveryFrom   *time.Time           `json:"delivery_from,omitempty"`
	DeliveryTo     *time.Time           `json:"delivery_to,omitempty"`
	ClarifyTime    bool                 `json:"clarify_time"`
	Items          []ItemView           `json:"items"`
	FlowerSum      int                  `json:"flower_sum"`
	DeliveryFee    int                  `json:"delivery_fee"`
	Total          int                  `json:"total"`
	CancelReason   string               `json:"cancel_reason,omitempty"`
}

// Presenter resolves tracking tokens into the customer-safe order view.
type Presenter struct {
	orders orderLoader
}

// NewPresenter wires the presenter with its order source.
func NewPresenter(orders orderLoader) (*Presenter, error) {
	if orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	return &Presenter{orders: orders}, nil
}

// Present renders the public view for a token. Malformed and unknown tokens
// are indistinguishable to the caller.
func (p *Presenter) Present(ctx context.Context, token string) (*View, error) {
	if !security.ValidTrackingToken(token) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order, err := p.orders.FindByTrackingToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by token")
	}

	view := &View{
		Status:         enums.TrackingStatusFor(order.Status),
		DeliveryMethod: order.DeliveryMethod,
		MaskedPhone:    MaskPhone(order.CustomerPhone),
		DeliveryFrom:   order.DeliveryFrom,
		DeliveryTo:     order.DeliveryTo,
		ClarifyTime:    order.ClarifyTime,
		Items:          make([]ItemView, 0, len(order.Items)),
		FlowerSum:      order.FlowerSum,
		DeliveryFee:    order.DeliveryFee,
		Total:          order.Total,
	}
	if order.Address != nil {
		view.MaskedAddress = MaskAddress(*order.Address)
	}
	if order.Status == enums.OrderStatusCancelled && order.CancelReason != nil {
		view.CancelReason = *order.CancelReason
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, ItemView{Name: item.Name, Qty: item.Qty})
	}
	return view, nil
}
