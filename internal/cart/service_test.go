package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/internal/pricing"
	"github.com/madinabek/flowershop-backend/pkg/config"
	"github.com/madinabek/flowershop-backend/pkg/db/models"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
)

type fakeCatalog struct {
	items map[uuid.UUID]models.StockItem
}

func (f *fakeCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.StockItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func newTestCartService(t *testing.T) (Service, *MemoryStore, *fakeCatalog) {
	t.Helper()

	calc, err := pricing.NewCalculator(
		config.PricingConfig{DefaultMarkupPercent: 100},
		config.DeliveryConfig{FlatFee: 1500},
	)
	if err != nil {
		t.Fatalf("build calculator: %v", err)
	}

	store := NewMemoryStore()
	catalog := &fakeCatalog{items: map[uuid.UUID]models.StockItem{}}
	svc, err := NewService(store, catalog, calc)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, store, catalog
}

func addCatalogItem(catalog *fakeCatalog, shopID uuid.UUID, price int, salePrice *int) uuid.UUID {
	id := uuid.New()
	catalog.items[id] = models.StockItem{
		ID:        id,
		ShopID:    shopID,
		Variety:   "red naomi",
		OnHandQty: 100,
		Price:     price,
		SalePrice: salePrice,
	}
	return id
}

func TestAddSnapshotsEffectivePrice(t *testing.T) {
	t.Parallel()

	shopID := uuid.New()
	svc, _, catalog := newTestCartService(t)
	ctx := context.Background()

	sale := 1800
	itemID := addCatalogItem(catalog, shopID, 2400, &sale)

	snapshot, err := svc.Add(ctx, shopID, "session-1", itemID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(snapshot.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(snapshot.Items))
	}
	if snapshot.Items[0].UnitPrice != 1800 {
		t.Fatalf("expected sale price snapshot 1800, got %d", snapshot.Items[0].UnitPrice)
	}

	// Adding the same item again increments its quantity.
	snapshot, err = svc.Add(ctx, shopID, "session-1", itemID)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].Qty != 2 {
		t.Fatalf("expected qty 2 on the same line, got %+v", snapshot.Items)
	}
}

func TestAddRejectsForeignCatalogItem(t *testing.T) {
	t.Parallel()

	shopID := uuid.New()
	svc, _, catalog := newTestCartService(t)
	ctx := context.Background()

	foreignID := addCatalogItem(catalog, uuid.New(), 2400, nil)
	_, err := svc.Add(ctx, shopID, "session-1", foreignID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign item, got %v", err)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	t.Parallel()

	shopID := uuid.New()
	svc, _, catalog := newTestCartService(t)
	ctx := context.Background()
	itemID := addCatalogItem(catalog, shopID, 2000, nil)

	if _, err := svc.Add(ctx, shopID, "session-1", itemID); err != nil {
		t.Fatalf("add: %v", err)
	}
	snapshot, err := svc.UpdateQuantity(ctx, shopID, "session-1", itemID, 0)
	if err != nil {
		t.Fatalf("update quantity to zero: %v", err)
	}
	if len(snapshot.Items) != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot.Items)
	}
}

func TestTotalsAcrossLines(t *testing.T) {
	t.Parallel()

	shopID := uuid.New()
	svc, _, catalog := newTestCartService(t)
	ctx := context.Background()

	roses := addCatalogItem(catalog, shopID, 2000, nil)
	peonies := addCatalogItem(catalog, shopID, 5000, nil)

	if _, err := svc.Add(ctx, shopID, "session-1", roses); err != nil {
		t.Fatalf("add roses: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, shopID, "session-1", roses, 15); err != nil {
		t.Fatalf("set roses qty: %v", err)
	}
	if _, err := svc.Add(ctx, shopID, "session-1", peonies); err != nil {
		t.Fatalf("add peonies: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, shopID, "session-1", peonies, 2); err != nil {
		t.Fatalf("set peonies qty: %v", err)
	}

	_, totals, err := svc.Get(ctx, shopID, "session-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if totals.FlowerSum != 40000 {
		t.Fatalf("expected flower sum 40000, got %d", totals.FlowerSum)
	}
	if totals.ItemCount != 17 {
		t.Fatalf("expected 17 stems, got %d", totals.ItemCount)
	}
}

func TestSnapshotSurvivesReload(t *testing.T) {
	t.Parallel()

	shopID := uuid.New()
	svc, store, catalog := newTestCartService(t)
	ctx := context.Background()
	itemID := addCatalogItem(catalog, shopID, 2000, nil)

	if _, err := svc.Add(ctx, shopID, "session-1", itemID); err != nil {
		t.Fatalf("add: %v", err)
	}

	// A fresh service over the same store sees the identical snapshot.
	calc, err := pricing.NewCalculator(
		config.PricingConfig{DefaultMarkupPercent: 100},
		config.DeliveryConfig{FlatFee: 1500},
	)
	if err != nil {
		t.Fatalf("build calculator: %v", err)
	}
	reloaded, err := NewService(store, catalog, calc)
	if err != nil {
		t.Fatalf("build reloaded service: %v", err)
	}
	snapshot, _, err := reloaded.Get(ctx, shopID, "session-1")
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].StockItemID != itemID {
		t.Fatalf("unexpected reloaded snapshot: %+v", snapshot)
	}
}

func TestForeignShopSnapshotDiscarded(t *testing.T) {
	t.Parallel()

	shopID := uuid.New()
	svc, store, _ := newTestCartService(t)
	ctx := context.Background()

	// A stale snapshot written under this session but belonging to another
	// shop must be dropped, not merged.
	stale := &Snapshot{
		ShopID: uuid.New(),
		Items:  []Item{{StockItemID: uuid.New(), Name: "foreign", Qty: 3, UnitPrice: 999}},
	}
	if err := store.Save(ctx, shopID, "session-1", stale); err != nil {
		t.Fatalf("seed stale snapshot: %v", err)
	}

	snapshot, totals, err := svc.Get(ctx, shopID, "session-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(snapshot.Items) != 0 || totals.FlowerSum != 0 {
		t.Fatalf("expected empty cart after discard, got %+v", snapshot)
	}

	// The stale key is gone from the store as well.
	loaded, err := store.Load(ctx, shopID, "session-1")
	if err != nil {
		t.Fatalf("load after discard: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected stale snapshot deleted, got %+v", loaded)
	}
}
