package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots one ordered position. Name and unit price are frozen at
// order creation and never follow later catalog changes.
type OrderItem struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	StockItemID uuid.UUID `gorm:"column:stock_item_id;type:uuid;not null" json:"stock_item_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Qty         int       `gorm:"column:qty;not null" json:"qty"`
	UnitPrice   int       `gorm:"column:unit_price;not null" json:"unit_price"`
	LineTotal   int       `gorm:"column:line_total;not null" json:"line_total"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
