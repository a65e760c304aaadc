package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// MaxMovementQuantity bounds the magnitude of a single movement.
const MaxMovementQuantity int64 = 1_000_000_000

// ValidatedMovement is a command that passed every ledger rule against the
// locked record state. Only Validate produces one.
type ValidatedMovement struct {
	cmd         MovementCommand
	actor       brandscope.Actor
	source      Record
	destination *Record
}

// Command returns the validated command.
func (v ValidatedMovement) Command() MovementCommand { return v.cmd }

// Validate runs the ledger rules in order and stops at the first failure.
// destination must be nil unless the command names one.
func Validate(cmd MovementCommand, actor brandscope.Actor, source Record, destination *Record) (ValidatedMovement, error) {
	if !cmd.Kind.Valid() {
		return ValidatedMovement{}, shared.NewFieldError(shared.ErrValidation, "movement_type", CodeInvalidKind,
			fmt.Sprintf("unknown movement type %q", cmd.Kind))
	}
	if err := checkSign(cmd); err != nil {
		return ValidatedMovement{}, err
	}

	if cmd.Kind == KindTransfer {
		if destination == nil {
			return ValidatedMovement{}, shared.NewFieldError(shared.ErrValidation, "destination_product_store", CodeDestinationRequired,
				"transfer movements require a destination")
		}
		if destination.Location.ID == source.Location.ID {
			return ValidatedMovement{}, shared.NewFieldError(shared.ErrValidation, "destination_product_store", CodeSameLocation,
				"cannot transfer to the same store")
		}
		if destination.Item.ID != source.Item.ID {
			return ValidatedMovement{}, shared.NewFieldError(shared.ErrValidation, "destination_product_store", CodeItemMismatch,
				"transfer must be for the same product")
		}
	} else if destination != nil {
		return ValidatedMovement{}, shared.NewFieldError(shared.ErrValidation, "destination_product_store", CodeDestinationNotAllowed,
			"only transfer movements take a destination")
	}

	if !actor.IsSystemAdmin() && !actor.OwnsBrand(source.BrandID()) {
		return ValidatedMovement{}, shared.NewFieldError(shared.ErrCrossBrandActor, "created_by", CodeCrossBrandActor,
			"user must belong to the same brand as the product")
	}

	if cmd.Quantity < 0 && cmd.Kind != KindAdjustment {
		required := -cmd.Quantity
		if available := source.Available(); required > available {
			return ValidatedMovement{}, shared.NewFieldError(shared.ErrInsufficientStock, "quantity", CodeInsufficientStock,
				fmt.Sprintf("insufficient stock. available: %d, requested: %d", available, required))
		}
	}

	if cmd.Quantity > 0 && source.OnHand > math.MaxInt64-cmd.Quantity {
		return ValidatedMovement{}, errCounterOverflow("quantity", source.OnHand)
	}
	if cmd.Kind == KindTransfer && destination.OnHand > math.MaxInt64+cmd.Quantity {
		return ValidatedMovement{}, errCounterOverflow("destination_product_store", destination.OnHand)
	}

	return ValidatedMovement{cmd: cmd, actor: actor, source: source, destination: destination}, nil
}

func errCounterOverflow(field string, onHand int64) error {
	return shared.NewFieldError(shared.ErrValidation, field, CodeQuantityOutOfRange,
		fmt.Sprintf("movement would overflow quantity on hand %d", onHand))
}

func checkSign(cmd MovementCommand) error {
	if cmd.Quantity == 0 {
		return shared.NewFieldError(shared.ErrValidation, "quantity", CodeZeroQuantity, "quantity must be non zero")
	}
	if cmd.Quantity > MaxMovementQuantity || cmd.Quantity < -MaxMovementQuantity {
		return shared.NewFieldError(shared.ErrValidation, "quantity", CodeQuantityOutOfRange,
			fmt.Sprintf("quantity magnitude must not exceed %d", MaxMovementQuantity))
	}
	switch cmd.Kind {
	case KindInbound:
		if cmd.Quantity < 0 {
			return shared.NewFieldError(shared.ErrValidation, "quantity", CodeInvalidSign, "inbound movements must have positive quantity")
		}
	case KindOutbound:
		if cmd.Quantity > 0 {
			return shared.NewFieldError(shared.ErrValidation, "quantity", CodeInvalidSign, "outbound movements must have negative quantity")
		}
	case KindTransfer:
		if cmd.Quantity > 0 {
			return shared.NewFieldError(shared.ErrValidation, "quantity", CodeInvalidSign, "transfer movements must have negative quantity")
		}
	}
	return nil
}

// Apply computes the ledger entry and the updated records for a validated
// movement. It does not touch storage; the caller persists the entry first
// and then the records, inside one transaction.
func Apply(v ValidatedMovement, id uuid.UUID, now time.Time) (Movement, []Record) {
	source := v.source
	entry := Movement{
		ID:              id,
		Kind:            v.cmd.Kind,
		Quantity:        v.cmd.Quantity,
		SourceRecordID:  source.ID,
		BrandID:         source.BrandID(),
		ItemID:          source.Item.ID,
		LocationID:      source.Location.ID,
		ReferenceNumber: v.cmd.ReferenceNumber,
		Notes:           v.cmd.Notes,
		ActorID:         v.actor.ID,
		CreatedAt:       now,
	}

	updatedSource := source.AdjustOnHand(v.cmd.Quantity)
	updatedSource.UpdatedAt = now
	updated := []Record{updatedSource}

	if v.cmd.Kind == KindTransfer && v.destination != nil {
		entry.DestinationRecordID = uuid.NullUUID{UUID: v.destination.ID, Valid: true}
		magnitude := v.cmd.Quantity
		if magnitude < 0 {
			magnitude = -magnitude
		}
		dest := *v.destination
		dest.OnHand += magnitude
		dest.UpdatedAt = now
		updated = append(updated, dest)
	}
	return entry, updated
}
