package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/internal/inventory"
	"github.com/madinabek/flowershop-backend/internal/pricing"
	"github.com/madinabek/flowershop-backend/internal/slots"
	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/metrics"
	"github.com/madinabek/flowershop-backend/pkg/pagination"
	"github.com/madinabek/flowershop-backend/pkg/security"
	"github.com/madinabek/flowershop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockLedger is the slice of the inventory service the lifecycle needs.
// Every call runs inside the order's transaction so status changes and their
// ledger effects commit or roll back together.
type stockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Release(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Consume(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Restore(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
}

type slotValidator interface {
	ValidateSelection(now time.Time, method enums.DeliveryMethod, clarify bool, from, to *time.Time) (slots.Selection, error)
}

// Service drives the order state machine.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, shopID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	Rollback(ctx context.Context, input RollbackInput) (*models.Order, error)
	MarkIssue(ctx context.Context, input IssueInput) (*models.Order, error)
	ResolveIssue(ctx context.Context, shopID, orderID uuid.UUID, actor string) (*models.Order, error)
}

type service struct {
	repo Repository
	tx   txRunner
	// catalog reads stock rows during checkout. The reads run on the
	// checkout transaction so they see the same snapshot the reservations
	// write against.
	catalog inventory.Repository
	ledger  stockLedger
	calc    *pricing.Calculator
	planner slotValidator
	metrics *metrics.LifecycleMetrics
	now     func() time.Time
}

// OrderItemInput is one requested position of a new order.
type OrderItemInput struct {
	StockItemID uuid.UUID
	Qty         int
}

// CreateOrderInput is the submission payload assembled from the cart, the
// slot selection and the customer form.
type CreateOrderInput struct {
	ShopID         uuid.UUID
	CustomerPhone  string
	RecipientName  string
	RecipientPhone string
	DeliveryMethod enums.DeliveryMethod
	ClarifyTime    bool
	DeliveryFrom   *time.Time
	DeliveryTo     *time.Time
	Address        *string
	Items          []OrderItemInput
	Actor          string
}

// TransitionInput moves an order one step along the forward path. ShopID
// scopes the lookup: an order belonging to another shop reads as not found.
type TransitionInput struct {
	ShopID  uuid.UUID
	OrderID uuid.UUID
	To      enums.OrderStatus
	Actor   string
}

// CancelInput terminates an order with a mandatory reason.
type CancelInput struct {
	ShopID  uuid.UUID
	OrderID uuid.UUID
	Reason  string
	Actor   string
}

// RollbackInput moves an order exactly one step backwards, with the reason
// recorded in the audit trail.
type RollbackInput struct {
	ShopID  uuid.UUID
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Reason  string
	Actor   string
}

// IssueInput flags a problem on an order without changing its status.
type IssueInput struct {
	ShopID  uuid.UUID
	OrderID uuid.UUID
	Type    enums.IssueType
	Comment string
	Actor   string
}

// NewService wires the lifecycle controller. The metrics collector is optional.
func NewService(repo Repository, tx txRunner, ledger stockLedger, catalog inventory.Repository, calc *pricing.Calculator, planner slotValidator, m *metrics.LifecycleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if calc == nil {
		return nil, fmt.Errorf("price calculator required")
	}
	if planner == nil {
		return nil, fmt.Errorf("slot planner required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		catalog: catalog,
		calc:    calc,
		planner: planner,
		metrics: m,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.CustomerPhone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.StockItemID == uuid.Nil || item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order items need a stock item and a positive quantity")
		}
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && (input.Address == nil || *input.Address == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address required for delivery orders")
	}

	selection, err := s.planner.ValidateSelection(s.now(), input.DeliveryMethod, input.ClarifyTime, input.DeliveryFrom, input.DeliveryTo)
	if err != nil {
		return nil, err
	}

	token, err := security.NewTrackingToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue tracking token")
	}

	orderID := uuid.New()
	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalog := s.catalog.WithTx(tx)
		flowerSum := 0
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			stock, err := catalog.FindByID(ctx, line.StockItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
			}
			if stock.ShopID != input.ShopID {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
			}

			if err := s.ledger.Reserve(ctx, tx, stock.ID, line.Qty, orderID, input.Actor); err != nil {
				return err
			}

			unitPrice := s.calc.EffectiveUnitPrice(*stock)
			lineTotal := s.calc.LineTotal(line.Qty, unitPrice)
			flowerSum += lineTotal
			items = append(items, models.OrderItem{
				StockItemID: stock.ID,
				Name:        stock.Variety,
				Qty:         line.Qty,
				UnitPrice:   unitPrice,
				LineTotal:   lineTotal,
			})
		}

		deliveryFee := s.calc.DeliveryFee(input.DeliveryMethod)
		order = &models.Order{
			ID:             orderID,
			ShopID:         input.ShopID,
			Status:         enums.OrderStatusNew,
			CustomerPhone:  input.CustomerPhone,
			RecipientName:  input.RecipientName,
			RecipientPhone: input.RecipientPhone,
			DeliveryMethod: input.DeliveryMethod,
			DeliveryFrom:   selection.From,
			DeliveryTo:     selection.To,
			ClarifyTime:    selection.ClarifyTime,
			Address:        input.Address,
			FlowerSum:      flowerSum,
			DeliveryFee:    deliveryFee,
			Total:          flowerSum + deliveryFee,
			TrackingToken:  token,
			StatusLog: types.StatusLog{{
				To:    enums.OrderStatusNew.String(),
				Actor: input.Actor,
				At:    s.now().UTC(),
			}},
			Items: items,
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated()
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, shopID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error) {
	if shopID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	orders, next, err := s.repo.ListByShop(ctx, shopID, filters, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, next, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	if input.To == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation requires a reason, use the cancel operation")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadForUpdate(ctx, repo, input.ShopID, input.OrderID)
		if err != nil {
			return err
		}
		order = loaded

		// Repeating the current status is an idempotent no-op.
		if order.Status == input.To {
			return nil
		}
		if !canTransition(order.Status, input.To) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("transition %s to %s is not allowed", order.Status, input.To))
		}
		if input.To == enums.OrderStatusDelivery || input.To == enums.OrderStatusSelfPickup {
			if input.To != order.DeliveryMethod.BranchStatus() {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "fulfilment branch does not match the order's delivery method")
			}
		}

		if order.Status == enums.OrderStatusPaid && input.To == enums.OrderStatusAssembled {
			for _, item := range order.Items {
				if err := s.ledger.Consume(ctx, tx, item.StockItemID, item.Qty, order.ID, input.Actor); err != nil {
					return err
				}
			}
		}

		return s.applyStatus(ctx, repo, order, input.To, "", input.Actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadForUpdate(ctx, repo, input.ShopID, input.OrderID)
		if err != nil {
			return err
		}
		order = loaded

		if order.Status == enums.OrderStatusCancelled {
			return nil
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot be cancelled")
		}

		// Reservations only exist before assembly consumed them.
		if order.Status == enums.OrderStatusNew || order.Status == enums.OrderStatusPaid {
			for _, item := range order.Items {
				if err := s.ledger.Release(ctx, tx, item.StockItemID, item.Qty, order.ID, input.Actor); err != nil {
					return err
				}
			}
		}

		reason := input.Reason
		return s.applyStatus(ctx, repo, order, enums.OrderStatusCancelled, input.Reason, input.Actor, &reason)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Rollback(ctx context.Context, input RollbackInput) (*models.Order, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rollback reason required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadForUpdate(ctx, repo, input.ShopID, input.OrderID)
		if err != nil {
			return err
		}
		order = loaded

		target, ok := rollbackTarget(order.Status, order.DeliveryMethod)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("no rollback available from %s", order.Status))
		}
		if input.Target != target {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("rollback from %s must target %s", order.Status, target))
		}

		// Stepping back over assembly puts consumed stock back on the shelf
		// and into reservation.
		if order.Status == enums.OrderStatusAssembled {
			for _, item := range order.Items {
				if err := s.ledger.Restore(ctx, tx, item.StockItemID, item.Qty, order.ID, input.Actor); err != nil {
					return err
				}
			}
		}

		return s.applyStatus(ctx, repo, order, target, input.Reason, input.Actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) MarkIssue(ctx context.Context, input IssueInput) (*models.Order, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid issue type")
	}
	if input.Comment == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issue comment required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadForUpdate(ctx, repo, input.ShopID, input.OrderID)
		if err != nil {
			return err
		}
		order = loaded

		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "issues cannot be raised on terminal orders")
		}

		issueType := input.Type
		comment := input.Comment
		changes := &models.Order{
			HasIssue:     true,
			IssueType:    &issueType,
			IssueComment: &comment,
		}
		ok, err := repo.UpdateGuarded(ctx, order.ID, order.Status, changes, []string{"HasIssue", "IssueType", "IssueComment"})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark issue")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}

		order.HasIssue = true
		order.IssueType = &issueType
		order.IssueComment = &comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ResolveIssue(ctx context.Context, shopID, orderID uuid.UUID, actor string) (*models.Order, error) {
	if shopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := s.loadForUpdate(ctx, repo, shopID, orderID)
		if err != nil {
			return err
		}
		order = loaded

		if !order.HasIssue {
			return nil
		}

		changes := &models.Order{HasIssue: false, IssueType: nil, IssueComment: nil}
		ok, err := repo.UpdateGuarded(ctx, order.ID, order.Status, changes, []string{"HasIssue", "IssueType", "IssueComment"})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve issue")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}

		order.HasIssue = false
		order.IssueType = nil
		order.IssueComment = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// applyStatus performs the guarded status write and appends the audit entry.
func (s *service) applyStatus(ctx context.Context, repo Repository, order *models.Order, to enums.OrderStatus, reason, actor string, cancelReason *string) error {
	from := order.Status
	log := append(types.StatusLog{}, order.StatusLog...)
	log = append(log, types.StatusLogEntry{
		From:   from.String(),
		To:     to.String(),
		Reason: reason,
		Actor:  actor,
		At:     s.now().UTC(),
	})

	changes := &models.Order{Status: to, StatusLog: log}
	fields := []string{"Status", "StatusLog"}
	if cancelReason != nil {
		changes.CancelReason = cancelReason
		fields = append(fields, "CancelReason")
	}

	ok, err := repo.UpdateGuarded(ctx, order.ID, from, changes, fields)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}

	order.Status = to
	order.StatusLog = log
	if cancelReason != nil {
		order.CancelReason = cancelReason
	}
	s.metrics.IncTransition(from.String(), to.String())
	return nil
}

// loadForUpdate fetches the order for a mutation. Orders of other shops are
// reported as not found rather than revealing they exist.
func (s *service) loadForUpdate(ctx context.Context, repo Repository, shopID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}
