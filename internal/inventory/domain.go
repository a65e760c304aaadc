package inventory

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind enumerates supported inventory movements.
type MovementKind string

const (
	// KindInbound represents stock received.
	KindInbound MovementKind = "INBOUND"
	// KindOutbound represents stock sold or used.
	KindOutbound MovementKind = "OUTBOUND"
	// KindTransfer moves stock between two locations of the same item.
	KindTransfer MovementKind = "TRANSFER"
	// KindAdjustment corrects stock after a count.
	KindAdjustment MovementKind = "ADJUSTMENT"
)

// Valid reports whether k is a known kind.
func (k MovementKind) Valid() bool {
	switch k {
	case KindInbound, KindOutbound, KindTransfer, KindAdjustment:
		return true
	}
	return false
}

// ItemRef is the subset of a product the ledger needs.
type ItemRef struct {
	ID      uuid.UUID `json:"id"`
	BrandID uuid.UUID `json:"brand_id"`
	SKU     string    `json:"sku"`
	Name    string    `json:"name"`
}

// LocationRef is the subset of a store the ledger needs.
type LocationRef struct {
	ID      uuid.UUID `json:"id"`
	BrandID uuid.UUID `json:"brand_id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
}

// Record holds stock counters for one item at one location.
type Record struct {
	ID           uuid.UUID   `json:"id"`
	Item         ItemRef     `json:"item"`
	Location     LocationRef `json:"location"`
	OnHand       int64       `json:"quantity_on_hand"`
	Reserved     int64       `json:"reserved_quantity"`
	MinimumLevel int64       `json:"minimum_stock_level"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BrandID is the brand owning the record, taken from its item.
func (r Record) BrandID() uuid.UUID {
	return r.Item.BrandID
}

// Available is on-hand stock not earmarked by reservations.
func (r Record) Available() int64 {
	if r.OnHand <= r.Reserved {
		return 0
	}
	return r.OnHand - r.Reserved
}

// BelowMinimum reports whether on-hand stock is under the reorder threshold.
func (r Record) BelowMinimum() bool {
	return r.OnHand < r.MinimumLevel
}

// RecordView is the read model exposed to callers.
type RecordView struct {
	Record
	BrandID      uuid.UUID `json:"brand_id"`
	Available    int64     `json:"available_quantity"`
	BelowMinimum bool      `json:"is_below_minimum"`
}

// View builds the read model.
func (r Record) View() RecordView {
	return RecordView{Record: r, BrandID: r.BrandID(), Available: r.Available(), BelowMinimum: r.BelowMinimum()}
}

// Movement is one immutable ledger entry.
type Movement struct {
	ID                  uuid.UUID     `json:"id"`
	Kind                MovementKind  `json:"movement_type"`
	Quantity            int64         `json:"quantity"`
	SourceRecordID      uuid.UUID     `json:"product_store"`
	DestinationRecordID uuid.NullUUID `json:"destination_product_store"`
	BrandID             uuid.UUID     `json:"brand_id"`
	ItemID              uuid.UUID     `json:"product_id"`
	LocationID          uuid.UUID     `json:"store_id"`
	ReferenceNumber     string        `json:"reference_number"`
	Notes               string        `json:"notes"`
	ActorID             uuid.UUID     `json:"created_by"`
	CreatedAt           time.Time     `json:"created_at"`
}

// MovementCommand is a request to post a movement. The actor is supplied separately.
type MovementCommand struct {
	Kind                MovementKind
	Quantity            int64
	SourceRecordID      uuid.UUID
	DestinationRecordID uuid.NullUUID
	ReferenceNumber     string
	Notes               string
	IdempotencyKey      string
}

// RecordInput creates a record.
type RecordInput struct {
	ItemID       uuid.UUID
	LocationID   uuid.UUID
	OnHand       int64
	Reserved     int64
	MinimumLevel int64
}

// RecordPatch edits counters directly (admin path). Nil fields stay unchanged.
type RecordPatch struct {
	OnHand       *int64
	Reserved     *int64
	MinimumLevel *int64
}

// RecordFilter narrows record listings.
type RecordFilter struct {
	ItemID     uuid.NullUUID
	LocationID uuid.NullUUID
	Limit      int
	Offset     int
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	RecordID uuid.NullUUID
	Kind     MovementKind
	Limit    int
	Offset   int
}

// HistoryFilter selects ledger history by exactly one key.
type HistoryFilter struct {
	ItemID     uuid.NullUUID
	LocationID uuid.NullUUID
	Limit      int
	Offset     int
}

// MovementResult is returned after a successful post.
type MovementResult struct {
	Movement    Movement    `json:"movement"`
	Source      RecordView  `json:"source"`
	Destination *RecordView `json:"destination,omitempty"`
}

// LowStockPage is a page of records below their minimum level.
type LowStockPage struct {
	Records []RecordView `json:"records"`
	Total   int          `json:"total"`
}

const defaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}
