package inventory

import (
	"time"

	"github.com/google/uuid"
)

// LowStockEvent is raised after a movement leaves a record under its minimum level.
type LowStockEvent struct {
	RecordID     uuid.UUID `json:"record_id"`
	BrandID      uuid.UUID `json:"brand_id"`
	ItemID       uuid.UUID `json:"product_id"`
	LocationID   uuid.UUID `json:"store_id"`
	OnHand       int64     `json:"quantity_on_hand"`
	MinimumLevel int64     `json:"minimum_stock_level"`
	MovementID   uuid.UUID `json:"movement_id"`
	RaisedAt     time.Time `json:"raised_at"`
}

func lowStockEvent(rec Record, movementID uuid.UUID) LowStockEvent {
	return LowStockEvent{
		RecordID:     rec.ID,
		BrandID:      rec.BrandID(),
		ItemID:       rec.Item.ID,
		LocationID:   rec.Location.ID,
		OnHand:       rec.OnHand,
		MinimumLevel: rec.MinimumLevel,
		MovementID:   movementID,
		RaisedAt:     rec.UpdatedAt,
	}
}
