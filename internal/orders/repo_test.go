package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/madinabek/flowershop-backend/pkg/db/models"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	"github.com/madinabek/flowershop-backend/pkg/pagination"
	"github.com/madinabek/flowershop-backend/pkg/types"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_repo_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return db
}

func repoOrder(shopID uuid.UUID, token string, createdAt time.Time) *models.Order {
	return &models.Order{
		ShopID:         shopID,
		Status:         enums.OrderStatusNew,
		CustomerPhone:  "+77011234567",
		DeliveryMethod: enums.DeliveryMethodDelivery,
		ClarifyTime:    true,
		FlowerSum:      40000,
		DeliveryFee:    1500,
		Total:          41500,
		TrackingToken:  token,
		StatusLog:      types.StatusLog{{To: string(enums.OrderStatusNew), At: createdAt}},
		CreatedAt:      createdAt,
		Items: []models.OrderItem{
			{Name: "red naomi", Qty: 15, UnitPrice: 2000, LineTotal: 30000},
		},
	}
}

func TestRepositoryCreateAssignsIDsAndPreloadsItems(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := repoOrder(uuid.New(), "AB12CD34", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)
	require.NotEqual(t, uuid.Nil, order.Items[0].ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "red naomi", loaded.Items[0].Name)

	byToken, err := repo.FindByTrackingToken(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byToken.ID)
}

func TestRepositoryListByShopPagesNewestFirst(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopID := uuid.New()

	base := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		order := repoOrder(shopID, fmt.Sprintf("AB12CD3%d", i), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(ctx, order))
	}
	// An unrelated shop must never bleed into the page.
	require.NoError(t, repo.Create(ctx, repoOrder(uuid.New(), "ZZ12CD99", base)))

	var seen []string
	params := pagination.Params{Limit: 2}
	for {
		page, next, err := repo.ListByShop(ctx, shopID, ListFilters{}, params)
		require.NoError(t, err)
		for _, order := range page {
			seen = append(seen, order.TrackingToken)
		}
		if next == "" {
			break
		}
		params.Cursor = next
	}

	require.Len(t, seen, 5)
	assert.Equal(t, []string{"AB12CD34", "AB12CD33", "AB12CD32", "AB12CD31", "AB12CD30"}, seen)
}

func TestRepositoryListByShopFilters(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	shopID := uuid.New()

	paid := repoOrder(shopID, "AB12CD30", time.Now().UTC())
	paid.Status = enums.OrderStatusPaid
	require.NoError(t, repo.Create(ctx, paid))

	flagged := repoOrder(shopID, "AB12CD31", time.Now().UTC())
	flagged.HasIssue = true
	require.NoError(t, repo.Create(ctx, flagged))

	status := enums.OrderStatusPaid
	page, _, err := repo.ListByShop(ctx, shopID, ListFilters{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "AB12CD30", page[0].TrackingToken)

	hasIssue := true
	page, _, err = repo.ListByShop(ctx, shopID, ListFilters{HasIssue: &hasIssue}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "AB12CD31", page[0].TrackingToken)
}

func TestRepositoryUpdateGuardedIsCompareAndSwap(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := repoOrder(uuid.New(), "AB12CD34", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, order))

	changes := &models.Order{Status: enums.OrderStatusPaid, StatusLog: order.StatusLog}
	updated, err := repo.UpdateGuarded(ctx, order.ID, enums.OrderStatusNew, changes, []string{"Status", "StatusLog"})
	require.NoError(t, err)
	require.True(t, updated)

	// A second writer still holding the old status loses the race.
	updated, err = repo.UpdateGuarded(ctx, order.ID, enums.OrderStatusNew, changes, []string{"Status", "StatusLog"})
	require.NoError(t, err)
	assert.False(t, updated)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, loaded.Status)
}
