package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/pagination"
)

// Repository manages persistence for stock items and their movement log.
// The guarded mutators run a single conditional UPDATE and report whether the
// guard matched; callers translate a false return into a domain error.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error)
	FindByShopAndVariety(ctx context.Context, shopID uuid.UUID, variety string) (*models.StockItem, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, params pagination.Params) ([]models.StockItem, string, error)
	ReserveQty(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	ReleaseQty(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	ConsumeQty(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	RestoreQty(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	ReceiveQty(ctx context.Context, id uuid.UUID, qty int) (bool, error)
	AdjustOnHand(ctx context.Context, id uuid.UUID, delta int) (bool, error)
	UpdatePricing(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.StockItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByShopAndVariety(ctx context.Context, shopID uuid.UUID, variety string) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).
		First(&item, "shop_id = ? AND variety = ?", shopID, variety).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByShop(ctx context.Context, shopID uuid.UUID, params pagination.Params) ([]models.StockItem, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var items []models.StockItem
	if err := query.Find(&items).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return items, nextCursor, nil
}

func (r *repository) ReserveQty(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET reserved_qty = reserved_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND on_hand_qty - reserved_qty >= ?
	`, qty, id, qty)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ReleaseQty(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND reserved_qty >= ?
	`, qty, id, qty)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ConsumeQty(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET on_hand_qty = on_hand_qty - ?,
			reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND reserved_qty >= ? AND on_hand_qty >= ?
	`, qty, qty, id, qty, qty)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) RestoreQty(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET on_hand_qty = on_hand_qty + ?,
			reserved_qty = reserved_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, id)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ReceiveQty(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET on_hand_qty = on_hand_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, id)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) AdjustOnHand(ctx context.Context, id uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET on_hand_qty = on_hand_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND on_hand_qty + ? >= reserved_qty AND on_hand_qty + ? >= 0
	`, delta, id, delta, delta)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) UpdatePricing(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StockItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, stockItemID uuid.UUID, params pagination.Params) ([]models.StockMovement, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("stock_item_id = ?", stockItemID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var movements []models.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(movements) > limit {
		movements = movements[:limit]
		last := movements[len(movements)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return movements, nextCursor, nil
}
