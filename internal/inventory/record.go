package inventory

import (
	"fmt"
	"math"

	"github.com/odyssey-erp/brandstock/internal/shared"
)

// Error codes reported by record and ledger validation.
const (
	CodeCrossBrandMismatch    = "CROSS_BRAND_MISMATCH"
	CodeOverReservation       = "OVER_RESERVATION"
	CodeNegativeQuantity      = "NEGATIVE_QUANTITY"
	CodeInvalidKind           = "INVALID_MOVEMENT_TYPE"
	CodeZeroQuantity          = "ZERO_QUANTITY"
	CodeInvalidSign           = "INVALID_SIGN"
	CodeQuantityOutOfRange    = "QUANTITY_OUT_OF_RANGE"
	CodeDestinationRequired   = "DESTINATION_REQUIRED"
	CodeDestinationNotAllowed = "DESTINATION_NOT_ALLOWED"
	CodeSameLocation          = "SAME_LOCATION"
	CodeItemMismatch          = "ITEM_MISMATCH"
	CodeCrossBrandActor       = "CROSS_BRAND_ACTOR"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeImmutable             = "IMMUTABLE"
)

// Validate checks the record invariants. It runs before every save.
func (r Record) Validate() error {
	if r.Item.BrandID != r.Location.BrandID {
		return shared.NewFieldError(shared.ErrCrossBrandMismatch, "product", CodeCrossBrandMismatch,
			"product and store must belong to the same brand")
	}
	for _, f := range []struct {
		name  string
		value int64
	}{
		{"quantity_on_hand", r.OnHand},
		{"reserved_quantity", r.Reserved},
		{"minimum_stock_level", r.MinimumLevel},
	} {
		if f.value < 0 {
			return shared.NewFieldError(shared.ErrValidation, f.name, CodeNegativeQuantity, f.name+" must not be negative")
		}
	}
	if r.Reserved > r.OnHand {
		return shared.NewFieldError(shared.ErrOverReservation, "reserved_quantity", CodeOverReservation,
			fmt.Sprintf("reserved quantity %d cannot exceed quantity on hand %d", r.Reserved, r.OnHand))
	}
	return nil
}

// AdjustOnHand applies delta with a floor of zero and a ceiling of
// math.MaxInt64. Reservations above the new on-hand quantity are released so
// reserved never exceeds on hand.
func (r Record) AdjustOnHand(delta int64) Record {
	next := int64(math.MaxInt64)
	if delta <= 0 || r.OnHand <= math.MaxInt64-delta {
		next = r.OnHand + delta
	}
	if next < 0 {
		next = 0
	}
	r.OnHand = next
	if r.Reserved > r.OnHand {
		r.Reserved = r.OnHand
	}
	return r
}

// NewRecord builds an unsaved record from resolved references.
func NewRecord(item ItemRef, location LocationRef, in RecordInput) Record {
	return Record{
		Item:         item,
		Location:     location,
		OnHand:       in.OnHand,
		Reserved:     in.Reserved,
		MinimumLevel: in.MinimumLevel,
	}
}

// Patch applies the admin edit and returns the edited copy.
func (r Record) Patch(p RecordPatch) Record {
	if p.OnHand != nil {
		r.OnHand = *p.OnHand
	}
	if p.Reserved != nil {
		r.Reserved = *p.Reserved
	}
	if p.MinimumLevel != nil {
		r.MinimumLevel = *p.MinimumLevel
	}
	return r
}
