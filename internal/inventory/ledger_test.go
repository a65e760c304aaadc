package inventory

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

func ledgerRecords() (brandscope.Actor, Record, Record) {
	brand := uuid.New()
	item := ItemRef{ID: uuid.New(), BrandID: brand, SKU: "A"}
	actor := brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleStaff, Brand: uuid.NullUUID{UUID: brand, Valid: true}}
	src := Record{ID: uuid.New(), Item: item, Location: LocationRef{ID: uuid.New(), BrandID: brand}, OnHand: 100}
	dst := Record{ID: uuid.New(), Item: item, Location: LocationRef{ID: uuid.New(), BrandID: brand}, OnHand: 50}
	return actor, src, dst
}

func TestValidateSignRules(t *testing.T) {
	actor, src, dst := ledgerRecords()
	cases := []struct {
		name string
		kind MovementKind
		qty  int64
		dest *Record
		code string
	}{
		{"unknown kind", MovementKind("RETURN"), 5, nil, CodeInvalidKind},
		{"zero inbound", KindInbound, 0, nil, CodeZeroQuantity},
		{"zero adjustment", KindAdjustment, 0, nil, CodeZeroQuantity},
		{"negative inbound", KindInbound, -5, nil, CodeInvalidSign},
		{"positive outbound", KindOutbound, 5, nil, CodeInvalidSign},
		{"positive transfer", KindTransfer, 5, &dst, CodeInvalidSign},
		{"transfer without destination", KindTransfer, -5, nil, CodeDestinationRequired},
		{"outbound with destination", KindOutbound, -5, &dst, CodeDestinationNotAllowed},
		{"min int64 inbound", KindInbound, math.MinInt64, nil, CodeQuantityOutOfRange},
		{"max int64 inbound", KindInbound, math.MaxInt64, nil, CodeQuantityOutOfRange},
		{"min int64 outbound", KindOutbound, math.MinInt64, nil, CodeQuantityOutOfRange},
		{"max int64 outbound", KindOutbound, math.MaxInt64, nil, CodeQuantityOutOfRange},
		{"min int64 transfer", KindTransfer, math.MinInt64, &dst, CodeQuantityOutOfRange},
		{"max int64 transfer", KindTransfer, math.MaxInt64, &dst, CodeQuantityOutOfRange},
		{"min int64 adjustment", KindAdjustment, math.MinInt64, nil, CodeQuantityOutOfRange},
		{"max int64 adjustment", KindAdjustment, math.MaxInt64, nil, CodeQuantityOutOfRange},
		{"just above bound", KindInbound, MaxMovementQuantity + 1, nil, CodeQuantityOutOfRange},
		{"just below negative bound", KindAdjustment, -MaxMovementQuantity - 1, nil, CodeQuantityOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(MovementCommand{Kind: tc.kind, Quantity: tc.qty, SourceRecordID: src.ID}, actor, src, tc.dest)
			require.ErrorIs(t, err, shared.ErrValidation)
			fe, ok := shared.AsFieldError(err)
			require.True(t, ok)
			require.Equal(t, tc.code, fe.Code)
		})
	}
}

func TestValidateAcceptsEveryKind(t *testing.T) {
	actor, src, dst := ledgerRecords()
	for _, cmd := range []struct {
		kind MovementKind
		qty  int64
		dest *Record
	}{
		{KindInbound, 1, nil},
		{KindOutbound, -100, nil},
		{KindTransfer, -100, &dst},
		{KindAdjustment, 7, nil},
		{KindAdjustment, -500, nil},
	} {
		_, err := Validate(MovementCommand{Kind: cmd.kind, Quantity: cmd.qty}, actor, src, cmd.dest)
		require.NoError(t, err, "kind %s qty %d", cmd.kind, cmd.qty)
	}
}

func TestValidateQuantityBounds(t *testing.T) {
	actor, src, dst := ledgerRecords()
	src.OnHand = MaxMovementQuantity

	_, err := Validate(MovementCommand{Kind: KindInbound, Quantity: MaxMovementQuantity}, actor, src, nil)
	require.NoError(t, err)
	_, err = Validate(MovementCommand{Kind: KindOutbound, Quantity: -MaxMovementQuantity}, actor, src, nil)
	require.NoError(t, err)

	src.OnHand = math.MaxInt64 - 5
	_, err = Validate(MovementCommand{Kind: KindInbound, Quantity: 10}, actor, src, nil)
	require.ErrorIs(t, err, shared.ErrValidation)
	fe, _ := shared.AsFieldError(err)
	require.Equal(t, CodeQuantityOutOfRange, fe.Code)
	require.Equal(t, "quantity", fe.Field)

	_, err = Validate(MovementCommand{Kind: KindAdjustment, Quantity: 5}, actor, src, nil)
	require.NoError(t, err)

	src.OnHand = 100
	dst.OnHand = math.MaxInt64 - 5
	_, err = Validate(MovementCommand{Kind: KindTransfer, Quantity: -10}, actor, src, &dst)
	require.ErrorIs(t, err, shared.ErrValidation)
	fe, _ = shared.AsFieldError(err)
	require.Equal(t, CodeQuantityOutOfRange, fe.Code)
	require.Equal(t, "destination_product_store", fe.Field)
}

func TestValidateTransferItemMismatch(t *testing.T) {
	actor, src, dst := ledgerRecords()
	dst.Item.ID = uuid.New()
	_, err := Validate(MovementCommand{Kind: KindTransfer, Quantity: -1}, actor, src, &dst)
	require.ErrorIs(t, err, shared.ErrValidation)
	fe, _ := shared.AsFieldError(err)
	require.Equal(t, CodeItemMismatch, fe.Code)
}

func TestValidateOrderSignBeforeBrand(t *testing.T) {
	_, src, _ := ledgerRecords()
	stranger := brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleBrandManager, Brand: uuid.NullUUID{UUID: uuid.New(), Valid: true}}

	_, err := Validate(MovementCommand{Kind: KindOutbound, Quantity: 5}, stranger, src, nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = Validate(MovementCommand{Kind: KindOutbound, Quantity: -500}, stranger, src, nil)
	require.ErrorIs(t, err, shared.ErrCrossBrandActor)
}

func TestApplyTransferConservesStock(t *testing.T) {
	actor, src, dst := ledgerRecords()
	v, err := Validate(MovementCommand{Kind: KindTransfer, Quantity: -40, ReferenceNumber: "TR-1"}, actor, src, &dst)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	id := uuid.New()
	entry, updated := Apply(v, id, now)
	require.Len(t, updated, 2)
	require.Equal(t, id, entry.ID)
	require.Equal(t, "TR-1", entry.ReferenceNumber)
	require.Equal(t, src.BrandID(), entry.BrandID)
	require.Equal(t, int64(60), updated[0].OnHand)
	require.Equal(t, int64(90), updated[1].OnHand)
	require.Equal(t, src.OnHand+dst.OnHand, updated[0].OnHand+updated[1].OnHand)
	require.Equal(t, now, updated[0].UpdatedAt)
	require.Equal(t, int64(100), src.OnHand, "input record must not change")
}

func TestApplyInboundSingleRecord(t *testing.T) {
	actor, src, _ := ledgerRecords()
	v, err := Validate(MovementCommand{Kind: KindInbound, Quantity: 5}, actor, src, nil)
	require.NoError(t, err)
	entry, updated := Apply(v, uuid.New(), time.Now())
	require.Len(t, updated, 1)
	require.False(t, entry.DestinationRecordID.Valid)
	require.Equal(t, int64(105), updated[0].OnHand)
	require.Equal(t, KindInbound, v.Command().Kind)
}
