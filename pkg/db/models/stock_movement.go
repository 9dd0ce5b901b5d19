package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/madinabek/flowershop-backend/pkg/enums"
)

// StockMovement is the append-only audit record written alongside every
// ledger mutation, attributable to an actor and optionally an order.
type StockMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StockItemID uuid.UUID          `gorm:"column:stock_item_id;type:uuid;not null;index" json:"stock_item_id"`
	Type        enums.MovementType `gorm:"column:type;type:text;not null" json:"type"`
	Qty         int                `gorm:"column:qty;not null" json:"qty"`
	OrderID     *uuid.UUID         `gorm:"column:order_id;type:uuid" json:"order_id,omitempty"`
	Actor       string             `gorm:"column:actor;not null" json:"actor"`
	Reason      *string            `gorm:"column:reason" json:"reason,omitempty"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
