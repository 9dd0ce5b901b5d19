package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Item is one cart position with the unit price frozen at add time.
type Item struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	Name        string    `json:"name"`
	Qty         int       `json:"qty"`
	UnitPrice   int       `json:"unit_price"`
}

// LineTotal is the derived per-position amount.
func (i Item) LineTotal() int {
	return i.Qty * i.UnitPrice
}

// Snapshot is the full serialized cart of one shop session. It is rewritten
// on every mutation so a page reload reconstructs identical state.
type Snapshot struct {
	ShopID    uuid.UUID `json:"shop_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Totals are the derived amounts of a snapshot.
type Totals struct {
	FlowerSum int `json:"flower_sum"`
	ItemCount int `json:"item_count"`
}

// SnapshotStore is the persistence port for cart snapshots. Load returns
// (nil, nil) when no snapshot exists for the session.
type SnapshotStore interface {
	Load(ctx context.Context, shopID uuid.UUID, sessionID string) (*Snapshot, error)
	Save(ctx context.Context, shopID uuid.UUID, sessionID string, snapshot *Snapshot) error
	Delete(ctx context.Context, shopID uuid.UUID, sessionID string) error
}
