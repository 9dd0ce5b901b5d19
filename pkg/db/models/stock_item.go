package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/madinabek/flowershop-backend/pkg/enums"
)

// StockItem is one purchasable stock line (variety/batch). On-hand and
// reserved are stored; available is always derived as on_hand - reserved.
type StockItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ShopID      uuid.UUID       `gorm:"column:shop_id;type:uuid;not null;index" json:"shop_id"`
	Variety     string          `gorm:"column:variety;not null" json:"variety"`
	OnHandQty   int             `gorm:"column:on_hand_qty;not null;default:0" json:"on_hand_qty"`
	ReservedQty int             `gorm:"column:reserved_qty;not null;default:0" json:"reserved_qty"`
	Price       int             `gorm:"column:price;not null" json:"price"`
	SalePrice   *int            `gorm:"column:sale_price" json:"sale_price,omitempty"`
	Cost        decimal.Decimal `gorm:"column:cost;type:numeric(12,2)" json:"cost"`
	Currency    enums.Currency  `gorm:"column:currency;type:text;not null;default:'KZT'" json:"currency"`
	FxRate      decimal.Decimal `gorm:"column:fx_rate;type:numeric(12,4)" json:"fx_rate"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// AvailableQty is the quantity still promisable to new orders.
func (s StockItem) AvailableQty() int {
	return s.OnHandQty - s.ReservedQty
}
