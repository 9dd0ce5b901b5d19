package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/madinabek/flowershop-backend/pkg/enums"
	"github.com/madinabek/flowershop-backend/pkg/types"
)

// Order is the single source of truth for a customer order. It is created
// once by checkout and afterwards mutated only through lifecycle transitions.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ShopID         uuid.UUID            `gorm:"column:shop_id;type:uuid;not null;index" json:"shop_id"`
	Status         enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'new'" json:"status"`
	CustomerPhone  string               `gorm:"column:customer_phone;not null" json:"customer_phone"`
	RecipientName  string               `gorm:"column:recipient_name" json:"recipient_name"`
	RecipientPhone string               `gorm:"column:recipient_phone" json:"recipient_phone"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;type:text;not null" json:"delivery_method"`
	DeliveryFrom   *time.Time           `gorm:"column:delivery_from" json:"delivery_from,omitempty"`
	DeliveryTo     *time.Time           `gorm:"column:delivery_to" json:"delivery_to,omitempty"`
	ClarifyTime    bool                 `gorm:"column:clarify_time;not null;default:false" json:"clarify_time"`
	Address        *string              `gorm:"column:address" json:"address,omitempty"`
	FlowerSum      int                  `gorm:"column:flower_sum;not null" json:"flower_sum"`
	DeliveryFee    int                  `gorm:"column:delivery_fee;not null" json:"delivery_fee"`
	Total          int                  `gorm:"column:total;not null" json:"total"`
	TrackingToken  string               `gorm:"column:tracking_token;not null;uniqueIndex" json:"tracking_token"`
	HasIssue       bool                 `gorm:"column:has_issue;not null;default:false" json:"has_issue"`
	IssueType      *enums.IssueType     `gorm:"column:issue_type;type:text" json:"issue_type,omitempty"`
	IssueComment   *string              `gorm:"column:issue_comment" json:"issue_comment,omitempty"`
	CancelReason   *string              `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	StatusLog      types.StatusLog      `gorm:"column:status_log;type:jsonb;serializer:json" json:"status_log"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
