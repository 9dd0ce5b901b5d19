package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	"github.com/madinabek/flowershop-backend/pkg/pagination"
)

// ListFilters narrows the staff order list.
type ListFilters struct {
	Status   *enums.OrderStatus
	HasIssue *bool
}

// Repository manages persistence for orders and their line items.
// UpdateGuarded applies a compare-and-set on the current status so concurrent
// transitions serialize; a false return means the guard did not match.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByTrackingToken(ctx context.Context, token string) (*models.Order, error)
	ListByShop(ctx context.Context, shopID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error)
	UpdateGuarded(ctx context.Context, id uuid.UUID, currentStatus enums.OrderStatus, changes *models.Order, fields []string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByTrackingToken(ctx context.Context, token string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "tracking_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByShop(ctx context.Context, shopID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("shop_id = ?", shopID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.HasIssue != nil {
		query = query.Where("has_issue = ?", *filters.HasIssue)
	}

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

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, nextCursor, nil
}

func (r *repository) UpdateGuarded(ctx context.Context, id uuid.UUID, currentStatus enums.OrderStatus, changes *models.Order, fields []string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, currentStatus).
		Select(fields).
		Updates(changes)
	return res.RowsAffected > 0, res.Error
}
