package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/internal/inventory"
	"github.com/madinabek/flowershop-backend/internal/pricing"
	"github.com/madinabek/flowershop-backend/internal/slots"
	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/security"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db      *gorm.DB
	orders  Service
	invRepo inventory.Repository
	shopID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.StockItem{},
		&models.StockMovement{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	calc, err := pricing.NewCalculator(
		config.PricingConfig{DefaultMarkupPercent: 100},
		config.DeliveryConfig{FlatFee: 1500},
	)
	if err != nil {
		t.Fatalf("build calculator: %v", err)
	}
	planner, err := slots.NewPlanner(config.DeliveryConfig{
		FlatFee:           1500,
		CourierPrepBuffer: 2 * time.Hour,
		PickupPrepBuffer:  time.Hour,
		HorizonDays:       3,
		FirstWindowHour:   10,
		LastWindowHour:    22,
		WindowLengthHours: 2,
	})
	if err != nil {
		t.Fatalf("build planner: %v", err)
	}

	runner := gormTxRunner{db: db}
	invRepo := inventory.NewRepository(db)
	invSvc, err := inventory.NewService(invRepo, runner, calc, nil)
	if err != nil {
		t.Fatalf("build inventory service: %v", err)
	}

	svc, err := NewService(NewRepository(db), runner, invSvc, invRepo, calc, planner, nil)
	if err != nil {
		t.Fatalf("build orders service: %v", err)
	}

	return &testEnv{db: db, orders: svc, invRepo: invRepo, shopID: uuid.New()}
}

func (e *testEnv) seedStock(t *testing.T, price, onHand int) uuid.UUID {
	t.Helper()
	item := &models.StockItem{
		ID:        uuid.New(),
		ShopID:    e.shopID,
		Variety:   "variety " + uuid.NewString()[:8],
		OnHandQty: onHand,
		Price:     price,
		Cost:      decimal.RequireFromString("2.5"),
		Currency:  enums.CurrencyUSD,
		FxRate:    decimal.RequireFromString("475"),
	}
	if err := e.db.Create(item).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return item.ID
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) models.StockItem {
	t.Helper()
	var item models.StockItem
	if err := e.db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	return item
}

func (e *testEnv) createOrder(t *testing.T, items []OrderItemInput) *models.Order {
	t.Helper()
	address := "Abay ave 10, apt 4"
	order, err := e.orders.Create(context.Background(), CreateOrderInput{
		ShopID:         e.shopID,
		CustomerPhone:  "+77011234567",
		RecipientName:  "Aigerim",
		RecipientPhone: "+77017654321",
		DeliveryMethod: enums.DeliveryMethodDelivery,
		ClarifyTime:    true,
		Address:        &address,
		Items:          items,
		Actor:          "customer",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateOrderRoundTrip(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 15000, 50)
	peonies := env.seedStock(t, 10000, 50)

	order := env.createOrder(t, []OrderItemInput{
		{StockItemID: roses, Qty: 2},
		{StockItemID: peonies, Qty: 1},
	})

	if order.Status != enums.OrderStatusNew {
		t.Fatalf("expected status new, got %s", order.Status)
	}
	if order.FlowerSum != 40000 || order.DeliveryFee != 1500 || order.Total != 41500 {
		t.Fatalf("unexpected totals: %+v", order)
	}
	if !security.ValidTrackingToken(order.TrackingToken) {
		t.Fatalf("invalid tracking token %q", order.TrackingToken)
	}
	if len(order.StatusLog) != 1 || order.StatusLog[0].To != "new" {
		t.Fatalf("unexpected status log: %+v", order.StatusLog)
	}

	// Checkout reserved every line.
	if got := env.stock(t, roses); got.ReservedQty != 2 || got.OnHandQty != 50 {
		t.Fatalf("unexpected roses state: %+v", got)
	}
	if got := env.stock(t, peonies); got.ReservedQty != 1 {
		t.Fatalf("unexpected peonies state: %+v", got)
	}
}

func TestCreateOrderInsufficientStockAbortsWholeOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 15000, 50)
	scarce := env.seedStock(t, 10000, 1)

	address := "Abay ave 10"
	_, err := env.orders.Create(context.Background(), CreateOrderInput{
		ShopID:         env.shopID,
		CustomerPhone:  "+77011234567",
		DeliveryMethod: enums.DeliveryMethodDelivery,
		ClarifyTime:    true,
		Address:        &address,
		Items: []OrderItemInput{
			{StockItemID: roses, Qty: 2},
			{StockItemID: scarce, Qty: 5},
		},
		Actor: "customer",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// The aborted transaction left no order and no reservation behind.
	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders, got %d", orderCount)
	}
	if got := env.stock(t, roses); got.ReservedQty != 0 {
		t.Fatalf("reservation leaked on aborted checkout: %+v", got)
	}
}

func TestForwardPathConsumesStockAtAssembly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 500)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 25}})
	ctx := context.Background()

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"}); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	// Payment does not touch the ledger.
	if got := env.stock(t, roses); got.OnHandQty != 500 || got.ReservedQty != 25 {
		t.Fatalf("ledger moved on payment: %+v", got)
	}

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusAssembled, Actor: "florist"}); err != nil {
		t.Fatalf("to assembled: %v", err)
	}
	if got := env.stock(t, roses); got.OnHandQty != 475 || got.ReservedQty != 0 {
		t.Fatalf("assembly did not consume stock: %+v", got)
	}

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusDelivery, Actor: "courier"}); err != nil {
		t.Fatalf("to delivery: %v", err)
	}
	updated, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusCompleted, Actor: "courier"})
	if err != nil {
		t.Fatalf("to completed: %v", err)
	}
	if updated.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if len(updated.StatusLog) != 5 {
		t.Fatalf("expected 5 audit entries, got %d", len(updated.StatusLog))
	}
}

func TestTransitionRejectsInvalidEdgeAndWrongBranch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 1}})
	ctx := context.Background()

	// new -> assembled skips payment.
	_, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusAssembled, Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"}); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusAssembled, Actor: "florist"}); err != nil {
		t.Fatalf("to assembled: %v", err)
	}

	// The order was placed for courier delivery; the pickup branch is closed.
	_, err = env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusSelfPickup, Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected branch mismatch conflict, got %v", err)
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 1}})
	ctx := context.Background()

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"}); err != nil {
		t.Fatalf("to paid: %v", err)
	}
	repeated, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"})
	if err != nil {
		t.Fatalf("repeat to paid: %v", err)
	}
	if repeated.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid, got %s", repeated.Status)
	}
	if len(repeated.StatusLog) != 2 {
		t.Fatalf("no-op transition must not append audit entries, got %d", len(repeated.StatusLog))
	}
}

func TestCancelReleasesReservationBeforeAssembly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 10}})
	ctx := context.Background()

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"}); err != nil {
		t.Fatalf("to paid: %v", err)
	}

	cancelled, err := env.orders.Cancel(ctx, CancelInput{ShopID: env.shopID, OrderID: order.ID, Reason: "customer changed their mind", Actor: "florist"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "customer changed their mind" {
		t.Fatalf("expected cancel reason persisted, got %+v", cancelled.CancelReason)
	}
	if got := env.stock(t, roses); got.OnHandQty != 100 || got.ReservedQty != 0 {
		t.Fatalf("reservation not released: %+v", got)
	}
}

func TestCancelAfterAssemblyKeepsStockConsumed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 10}})
	ctx := context.Background()

	for _, to := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusAssembled} {
		if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: to, Actor: "florist"}); err != nil {
			t.Fatalf("to %s: %v", to, err)
		}
	}

	if _, err := env.orders.Cancel(ctx, CancelInput{ShopID: env.shopID, OrderID: order.ID, Reason: "recipient unreachable", Actor: "florist"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// The bouquet is already built; nothing returns to the shelf.
	if got := env.stock(t, roses); got.OnHandQty != 90 || got.ReservedQty != 0 {
		t.Fatalf("unexpected ledger after late cancel: %+v", got)
	}
}

func TestCancelValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 1}})
	ctx := context.Background()

	_, err := env.orders.Cancel(ctx, CancelInput{ShopID: env.shopID, OrderID: order.ID, Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error without reason, got %v", err)
	}

	for _, to := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusAssembled, enums.OrderStatusDelivery, enums.OrderStatusCompleted} {
		if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: to, Actor: "florist"}); err != nil {
			t.Fatalf("to %s: %v", to, err)
		}
	}
	_, err = env.orders.Cancel(ctx, CancelInput{ShopID: env.shopID, OrderID: order.ID, Reason: "too late", Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on completed order, got %v", err)
	}
}

func TestRollbackFromAssembledRestoresStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 500)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 25}})
	ctx := context.Background()

	for _, to := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusAssembled} {
		if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: to, Actor: "florist"}); err != nil {
			t.Fatalf("to %s: %v", to, err)
		}
	}
	if got := env.stock(t, roses); got.OnHandQty != 475 || got.ReservedQty != 0 {
		t.Fatalf("unexpected ledger after assembly: %+v", got)
	}

	rolled, err := env.orders.Rollback(ctx, RollbackInput{
		ShopID:  env.shopID,
		OrderID: order.ID,
		Target:  enums.OrderStatusPaid,
		Reason:  "wrong bouquet assembled",
		Actor:   "florist",
	})
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if rolled.Status != enums.OrderStatusPaid {
		t.Fatalf("expected paid after rollback, got %s", rolled.Status)
	}
	if got := env.stock(t, roses); got.OnHandQty != 500 || got.ReservedQty != 25 {
		t.Fatalf("rollback did not restore the ledger: %+v", got)
	}

	last := rolled.StatusLog[len(rolled.StatusLog)-1]
	if last.Reason != "wrong bouquet assembled" || last.From != "assembled" || last.To != "paid" {
		t.Fatalf("unexpected audit entry: %+v", last)
	}
}

func TestRollbackGuards(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 1}})
	ctx := context.Background()

	// new has no previous step.
	_, err := env.orders.Rollback(ctx, RollbackInput{ShopID: env.shopID, OrderID: order.ID, Target: enums.OrderStatusNew, Reason: "misclick", Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"}); err != nil {
		t.Fatalf("to paid: %v", err)
	}

	// Only the single previous status is a legal target.
	_, err = env.orders.Rollback(ctx, RollbackInput{ShopID: env.shopID, OrderID: order.ID, Target: enums.OrderStatusAssembled, Reason: "misclick", Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for wrong target, got %v", err)
	}

	// Reason is mandatory.
	_, err = env.orders.Rollback(ctx, RollbackInput{ShopID: env.shopID, OrderID: order.ID, Target: enums.OrderStatusNew, Actor: "florist"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIssueFlagIsOrthogonalToStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 1}})
	ctx := context.Background()

	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"}); err != nil {
		t.Fatalf("to paid: %v", err)
	}

	flagged, err := env.orders.MarkIssue(ctx, IssueInput{
		ShopID:  env.shopID,
		OrderID: order.ID,
		Type:    enums.IssueTypeWrongAddress,
		Comment: "street number does not exist",
		Actor:   "courier",
	})
	if err != nil {
		t.Fatalf("mark issue: %v", err)
	}
	if !flagged.HasIssue || flagged.IssueType == nil || *flagged.IssueType != enums.IssueTypeWrongAddress {
		t.Fatalf("issue metadata missing: %+v", flagged)
	}
	if flagged.Status != enums.OrderStatusPaid {
		t.Fatalf("issue must not change status, got %s", flagged.Status)
	}

	// The order continues through the normal flow while flagged.
	if _, err := env.orders.Transition(ctx, TransitionInput{ShopID: env.shopID, OrderID: order.ID, To: enums.OrderStatusAssembled, Actor: "florist"}); err != nil {
		t.Fatalf("to assembled with open issue: %v", err)
	}

	resolved, err := env.orders.ResolveIssue(ctx, env.shopID, order.ID, "florist")
	if err != nil {
		t.Fatalf("resolve issue: %v", err)
	}
	if resolved.HasIssue || resolved.IssueType != nil || resolved.IssueComment != nil {
		t.Fatalf("issue not cleared: %+v", resolved)
	}
}

func TestMutationsRejectForeignShop(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	roses := env.seedStock(t, 2000, 100)
	order := env.createOrder(t, []OrderItemInput{{StockItemID: roses, Qty: 1}})
	ctx := context.Background()
	foreign := uuid.New()

	expectNotFound := func(name string, err error) {
		t.Helper()
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("%s from another shop: expected not found, got %v", name, err)
		}
	}

	_, err := env.orders.Transition(ctx, TransitionInput{ShopID: foreign, OrderID: order.ID, To: enums.OrderStatusPaid, Actor: "florist"})
	expectNotFound("transition", err)

	_, err = env.orders.Cancel(ctx, CancelInput{ShopID: foreign, OrderID: order.ID, Reason: "not yours", Actor: "florist"})
	expectNotFound("cancel", err)

	_, err = env.orders.Rollback(ctx, RollbackInput{ShopID: foreign, OrderID: order.ID, Target: enums.OrderStatusNew, Reason: "not yours", Actor: "florist"})
	expectNotFound("rollback", err)

	_, err = env.orders.MarkIssue(ctx, IssueInput{ShopID: foreign, OrderID: order.ID, Type: enums.IssueTypeWrongAddress, Comment: "not yours", Actor: "florist"})
	expectNotFound("mark issue", err)

	_, err = env.orders.ResolveIssue(ctx, foreign, order.ID, "florist")
	expectNotFound("resolve issue", err)

	// The order is untouched afterwards.
	loaded, err := env.orders.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if loaded.Status != enums.OrderStatusNew || loaded.HasIssue {
		t.Fatalf("foreign-shop calls mutated the order: %+v", loaded)
	}
}
