package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/internal/pricing"
	"github.com/madinabek/flowershop-backend/pkg/db/models"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
)

type catalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
}

// Service is the session cart. Every mutation persists the full snapshot
// through the store so a reload reconstructs identical state.
type Service interface {
	Add(ctx context.Context, shopID uuid.UUID, sessionID string, stockItemID uuid.UUID) (*Snapshot, error)
	UpdateQuantity(ctx context.Context, shopID uuid.UUID, sessionID string, stockItemID uuid.UUID, qty int) (*Snapshot, error)
	Remove(ctx context.Context, shopID uuid.UUID, sessionID string, stockItemID uuid.UUID) (*Snapshot, error)
	Clear(ctx context.Context, shopID uuid.UUID, sessionID string) error
	Get(ctx context.Context, shopID uuid.UUID, sessionID string) (*Snapshot, Totals, error)
}

type service struct {
	store   SnapshotStore
	catalog catalogReader
	calc    *pricing.Calculator
	now     func() time.Time
}

// NewService wires the cart with its snapshot store and the stock catalog.
func NewService(store SnapshotStore, catalog catalogReader, calc *pricing.Calculator) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if calc == nil {
		return nil, fmt.Errorf("price calculator required")
	}
	return &service{store: store, catalog: catalog, calc: calc, now: time.Now}, nil
}

func (s *service) Add(ctx context.Context, shopID uuid.UUID, sessionID string, stockItemID uuid.UUID) (*Snapshot, error) {
	if err := validateSession(shopID, sessionID); err != nil {
		return nil, err
	}
	if stockItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}

	snapshot, err := s.load(ctx, shopID, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range snapshot.Items {
		if snapshot.Items[i].StockItemID == stockItemID {
			snapshot.Items[i].Qty++
			return s.save(ctx, shopID, sessionID, snapshot)
		}
	}

	item, err := s.catalog.FindByID(ctx, stockItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	if item.ShopID != shopID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
	}

	snapshot.Items = append(snapshot.Items, Item{
		StockItemID: item.ID,
		Name:        item.Variety,
		Qty:         1,
		UnitPrice:   s.calc.EffectiveUnitPrice(*item),
	})
	return s.save(ctx, shopID, sessionID, snapshot)
}

func (s *service) UpdateQuantity(ctx context.Context, shopID uuid.UUID, sessionID string, stockItemID uuid.UUID, qty int) (*Snapshot, error) {
	if err := validateSession(shopID, sessionID); err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if qty == 0 {
		return s.Remove(ctx, shopID, sessionID, stockItemID)
	}

	snapshot, err := s.load(ctx, shopID, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range snapshot.Items {
		if snapshot.Items[i].StockItemID == stockItemID {
			snapshot.Items[i].Qty = qty
			return s.save(ctx, shopID, sessionID, snapshot)
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
}

func (s *service) Remove(ctx context.Context, shopID uuid.UUID, sessionID string, stockItemID uuid.UUID) (*Snapshot, error) {
	if err := validateSession(shopID, sessionID); err != nil {
		return nil, err
	}

	snapshot, err := s.load(ctx, shopID, sessionID)
	if err != nil {
		return nil, err
	}

	kept := snapshot.Items[:0]
	for _, item := range snapshot.Items {
		if item.StockItemID != stockItemID {
			kept = append(kept, item)
		}
	}
	snapshot.Items = kept
	return s.save(ctx, shopID, sessionID, snapshot)
}

func (s *service) Clear(ctx context.Context, shopID uuid.UUID, sessionID string) error {
	if err := validateSession(shopID, sessionID); err != nil {
		return err
	}
	return s.store.Delete(ctx, shopID, sessionID)
}

func (s *service) Get(ctx context.Context, shopID uuid.UUID, sessionID string) (*Snapshot, Totals, error) {
	if err := validateSession(shopID, sessionID); err != nil {
		return nil, Totals{}, err
	}

	snapshot, err := s.load(ctx, shopID, sessionID)
	if err != nil {
		return nil, Totals{}, err
	}
	return snapshot, s.totals(snapshot), nil
}

// load fetches the session snapshot and discards a stale one written for a
// different shop instead of merging it.
func (s *service) load(ctx context.Context, shopID uuid.UUID, sessionID string) (*Snapshot, error) {
	snapshot, err := s.store.Load(ctx, shopID, sessionID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return &Snapshot{ShopID: shopID, Items: []Item{}}, nil
	}
	if snapshot.ShopID != shopID {
		if err := s.store.Delete(ctx, shopID, sessionID); err != nil {
			return nil, err
		}
		return &Snapshot{ShopID: shopID, Items: []Item{}}, nil
	}
	return snapshot, nil
}

func (s *service) save(ctx context.Context, shopID uuid.UUID, sessionID string, snapshot *Snapshot) (*Snapshot, error) {
	snapshot.ShopID = shopID
	snapshot.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, shopID, sessionID, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *service) totals(snapshot *Snapshot) Totals {
	lines := make([]pricing.Line, 0, len(snapshot.Items))
	count := 0
	for _, item := range snapshot.Items {
		lines = append(lines, pricing.Line{Qty: item.Qty, UnitPrice: item.UnitPrice})
		count += item.Qty
	}
	return Totals{FlowerSum: s.calc.CartTotal(lines), ItemCount: count}
}

func validateSession(shopID uuid.UUID, sessionID string) error {
	if shopID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	return nil
}
