package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/internal/pricing"
	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/metrics"
	"github.com/madinabek/flowershop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the stock ledger. Reserve/Release/Consume/Restore take the
// caller's transaction so order transitions and their ledger effects commit
// atomically; Receive and Adjust open their own transaction.
type Service interface {
	Receive(ctx context.Context, input ReceiveInput) (*models.StockItem, error)
	Reserve(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Release(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Consume(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Restore(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error
	Adjust(ctx context.Context, input AdjustInput) (*models.StockItem, error)
	Get(ctx context.Context, stockItemID uuid.UUID) (*models.StockItem, error)
	List(ctx context.Context, shopID uuid.UUID, params pagination.Params) ([]models.StockItem, string, error)
	ListMovements(ctx context.Context, shopID, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	calc    *pricing.Calculator
	metrics *metrics.LifecycleMetrics
}

// ReceiveInput captures one warehouse intake: quantity plus the purchase cost
// in the source currency and the FX rate frozen at receipt time.
type ReceiveInput struct {
	ShopID        uuid.UUID
	Variety       string
	Qty           int
	Cost          decimal.Decimal
	Currency      enums.Currency
	FxRate        decimal.Decimal
	MarkupPercent *int
	SalePrice     *int
	Actor         string
}

// AdjustInput is a manual stock correction outside of any order. ShopID
// scopes the lookup: items of other shops read as not found.
type AdjustInput struct {
	ShopID      uuid.UUID
	StockItemID uuid.UUID
	Delta       int
	Actor       string
	Reason      string
}

// NewService wires the stock ledger with its dependencies. The metrics
// collector is optional.
func NewService(repo Repository, tx txRunner, calc *pricing.Calculator, m *metrics.LifecycleMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if calc == nil {
		return nil, fmt.Errorf("price calculator required")
	}
	return &service{repo: repo, tx: tx, calc: calc, metrics: m}, nil
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*models.StockItem, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.Variety == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variety required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	retail, err := s.calc.RetailPrice(input.Cost, input.FxRate, input.MarkupPercent)
	if err != nil {
		return nil, err
	}

	var item *models.StockItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByShopAndVariety(ctx, input.ShopID, input.Variety)
		switch {
		case err == nil:
			ok, err := repo.ReceiveQty(ctx, existing.ID, input.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "receive stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
			}
			if err := repo.UpdatePricing(ctx, existing.ID, map[string]any{
				"price":      retail,
				"sale_price": input.SalePrice,
				"cost":       input.Cost,
				"currency":   input.Currency,
				"fx_rate":    input.FxRate,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock pricing")
			}
			existing.OnHandQty += input.Qty
			existing.Price = retail
			existing.SalePrice = input.SalePrice
			existing.Cost = input.Cost
			existing.Currency = input.Currency
			existing.FxRate = input.FxRate
			item = existing

		case errors.Is(err, gorm.ErrRecordNotFound):
			created := &models.StockItem{
				ShopID:    input.ShopID,
				Variety:   input.Variety,
				OnHandQty: input.Qty,
				Price:     retail,
				SalePrice: input.SalePrice,
				Cost:      input.Cost,
				Currency:  input.Currency,
				FxRate:    input.FxRate,
			}
			if err := repo.Create(ctx, created); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock item")
			}
			item = created

		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
		}

		return s.recordMovement(ctx, repo, item.ID, enums.MovementTypeIn, input.Qty, nil, input.Actor, nil)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error {
	if err := validateLedgerArgs(stockItemID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.ReserveQty(ctx, stockItemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock available to reserve")
	}
	return s.recordMovement(ctx, repo, stockItemID, enums.MovementTypeReserve, qty, &orderID, actor, nil)
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error {
	if err := validateLedgerArgs(stockItemID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.ReleaseQty(ctx, stockItemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "release exceeds reserved quantity")
	}
	return s.recordMovement(ctx, repo, stockItemID, enums.MovementTypeRelease, qty, &orderID, actor, nil)
}

func (s *service) Consume(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error {
	if err := validateLedgerArgs(stockItemID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.ConsumeQty(ctx, stockItemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "consume exceeds reserved or on-hand quantity")
	}
	return s.recordMovement(ctx, repo, stockItemID, enums.MovementTypeOut, qty, &orderID, actor, nil)
}

func (s *service) Restore(ctx context.Context, tx *gorm.DB, stockItemID uuid.UUID, qty int, orderID uuid.UUID, actor string) error {
	if err := validateLedgerArgs(stockItemID, qty); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	ok, err := repo.RestoreQty(ctx, stockItemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
	}
	reason := "rollback of assembly"
	return s.recordMovement(ctx, repo, stockItemID, enums.MovementTypeIn, qty, &orderID, actor, &reason)
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.StockItem, error) {
	if input.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if input.StockItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}

	var item *models.StockItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := s.ensureOwned(ctx, repo, input.ShopID, input.StockItemID); err != nil {
			return err
		}

		ok, err := repo.AdjustOnHand(ctx, input.StockItemID, input.Delta)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "adjustment would drop on-hand below reserved")
		}

		if err := s.recordMovement(ctx, repo, input.StockItemID, enums.MovementTypeAdjustment, input.Delta, nil, input.Actor, &input.Reason); err != nil {
			return err
		}

		item, err = repo.FindByID(ctx, input.StockItemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) Get(ctx context.Context, stockItemID uuid.UUID) (*models.StockItem, error) {
	item, err := s.repo.FindByID(ctx, stockItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, shopID uuid.UUID, params pagination.Params) ([]models.StockItem, string, error) {
	if shopID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	items, next, err := s.repo.ListByShop(ctx, shopID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock items")
	}
	return items, next, nil
}

func (s *service) ListMovements(ctx context.Context, shopID, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error) {
	if shopID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "shop id required")
	}
	if stockItemID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if err := s.ensureOwned(ctx, s.repo, shopID, stockItemID); err != nil {
		return nil, "", err
	}
	movements, next, err := s.repo.ListMovements(ctx, stockItemID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, next, nil
}

// ensureOwned hides stock of other shops behind a not-found answer.
func (s *service) ensureOwned(ctx context.Context, repo Repository, shopID, stockItemID uuid.UUID) error {
	item, err := repo.FindByID(ctx, stockItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	if item.ShopID != shopID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
	}
	return nil
}

func (s *service) recordMovement(ctx context.Context, repo Repository, stockItemID uuid.UUID, movementType enums.MovementType, qty int, orderID *uuid.UUID, actor string, reason *string) error {
	movement := &models.StockMovement{
		StockItemID: stockItemID,
		Type:        movementType,
		Qty:         qty,
		OrderID:     orderID,
		Actor:       actor,
		Reason:      reason,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}
	s.metrics.IncMovement(movementType.String())
	return nil
}

func validateLedgerArgs(stockItemID uuid.UUID, qty int) error {
	if stockItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}
