package inventory

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

type fixture struct {
	repo        *memoryRepo
	audit       *memoryAudit
	idem        *memoryIdempotency
	integration *recordingIntegration
	metrics     *recordingObserver
	svc         *Service

	brandA, brandB uuid.UUID
	item           ItemRef
	otherItem      ItemRef
	storeX, storeY LocationRef
	storeB         LocationRef

	admin, managerA, storeMgrA, staffA, managerB brandscope.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:        newMemoryRepo(),
		audit:       &memoryAudit{},
		idem:        &memoryIdempotency{},
		integration: &recordingIntegration{},
		metrics:     &recordingObserver{},
		brandA:      uuid.New(),
		brandB:      uuid.New(),
	}
	f.item = f.repo.addItem(f.brandA, "SKU-1")
	f.otherItem = f.repo.addItem(f.brandA, "SKU-2")
	f.storeX = f.repo.addLocation(f.brandA, "X")
	f.storeY = f.repo.addLocation(f.brandA, "Y")
	f.storeB = f.repo.addLocation(f.brandB, "B1")

	f.admin = brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleSystemAdmin}
	f.managerA = brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleBrandManager, Brand: uuid.NullUUID{UUID: f.brandA, Valid: true}}
	f.storeMgrA = brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleStoreManager, Brand: uuid.NullUUID{UUID: f.brandA, Valid: true}}
	f.staffA = brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleStaff, Brand: uuid.NullUUID{UUID: f.brandA, Valid: true}}
	f.managerB = brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleBrandManager, Brand: uuid.NullUUID{UUID: f.brandB, Valid: true}}

	f.svc = NewService(ServiceDeps{
		Repo:        f.repo,
		Audit:       f.audit,
		Idempotency: f.idem,
		Integration: f.integration,
		Metrics:     f.metrics,
	}, ServiceConfig{MaxAttempts: 3})
	return f
}

func requireCode(t *testing.T, err error, kind error, code string) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, kind)
	fe, ok := shared.AsFieldError(err)
	require.True(t, ok, "expected field error, got %v", err)
	require.Equal(t, code, fe.Code)
}

func TestInboundIncreasesOnHand(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)

	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 50, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Equal(t, int64(150), res.Source.OnHand)
	require.Equal(t, int64(150), f.repo.record(rec.ID).OnHand)
	require.Equal(t, 1, f.repo.movementCount())
	require.Equal(t, f.brandA, res.Movement.BrandID)
	require.Equal(t, f.managerA.ID, res.Movement.ActorID)
	require.Nil(t, res.Destination)
	require.Equal(t, 1, f.metrics.count("INBOUND", "applied"))
	require.Contains(t, f.audit.actions(), "inventory:movement.INBOUND")
}

func TestOutboundDecreasesOnHand(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)

	res, err := f.svc.PostMovement(context.Background(), f.staffA, MovementCommand{Kind: KindOutbound, Quantity: -20, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Equal(t, int64(80), res.Source.OnHand)
	require.Equal(t, int64(80), f.repo.record(rec.ID).OnHand)
}

func TestOutboundBeyondStockIsRejected(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)

	_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindOutbound, Quantity: -200, SourceRecordID: rec.ID})
	requireCode(t, err, shared.ErrInsufficientStock, CodeInsufficientStock)
	require.Contains(t, err.Error(), "available: 100, requested: 200")
	require.Equal(t, int64(100), f.repo.record(rec.ID).OnHand)
	require.Zero(t, f.repo.movementCount())
	require.Equal(t, 1, f.metrics.count("OUTBOUND", CodeInsufficientStock))
}

func TestOutboundChecksAvailableNotOnHand(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 10, 8, 0)

	_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindOutbound, Quantity: -5, SourceRecordID: rec.ID})
	requireCode(t, err, shared.ErrInsufficientStock, CodeInsufficientStock)

	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindOutbound, Quantity: -2, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Equal(t, int64(8), res.Source.OnHand)
	require.Equal(t, int64(8), res.Source.Reserved)
	require.Zero(t, res.Source.Available)
}

func TestTransferMovesStockBetweenStores(t *testing.T) {
	f := newFixture(t)
	src := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)
	dst := f.repo.addRecord(f.item, f.storeY, 50, 0, 0)

	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{
		Kind:                KindTransfer,
		Quantity:            -10,
		SourceRecordID:      src.ID,
		DestinationRecordID: uuid.NullUUID{UUID: dst.ID, Valid: true},
	})
	require.NoError(t, err)
	require.Equal(t, int64(90), f.repo.record(src.ID).OnHand)
	require.Equal(t, int64(60), f.repo.record(dst.ID).OnHand)
	require.NotNil(t, res.Destination)
	require.Equal(t, int64(60), res.Destination.OnHand)
	require.True(t, res.Movement.DestinationRecordID.Valid)
	require.Equal(t, dst.ID, res.Movement.DestinationRecordID.UUID)
	require.Equal(t, 1, f.repo.movementCount())
}

func TestTransferToSameStoreIsRejected(t *testing.T) {
	f := newFixture(t)
	src := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)
	sameStore := f.repo.addRecord(f.otherItem, f.storeX, 5, 0, 0)

	_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{
		Kind:                KindTransfer,
		Quantity:            -10,
		SourceRecordID:      src.ID,
		DestinationRecordID: uuid.NullUUID{UUID: sameStore.ID, Valid: true},
	})
	requireCode(t, err, shared.ErrValidation, CodeSameLocation)
	require.Equal(t, int64(100), f.repo.record(src.ID).OnHand)
	require.Equal(t, int64(5), f.repo.record(sameStore.ID).OnHand)
	require.Zero(t, f.repo.movementCount())
}

func TestTransferOntoItselfIsRejected(t *testing.T) {
	f := newFixture(t)
	src := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)

	_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{
		Kind:                KindTransfer,
		Quantity:            -10,
		SourceRecordID:      src.ID,
		DestinationRecordID: uuid.NullUUID{UUID: src.ID, Valid: true},
	})
	requireCode(t, err, shared.ErrValidation, CodeSameLocation)
	require.Equal(t, int64(100), f.repo.record(src.ID).OnHand)
}

func TestConcurrentOutboundsNeverOversell(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)

	errs := make([]error, 2)
	var g errgroup.Group
	for i := range errs {
		i := i
		g.Go(func() error {
			_, errs[i] = f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindOutbound, Quantity: -60, SourceRecordID: rec.ID})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, int64(40), f.repo.record(rec.ID).OnHand)
	require.Equal(t, 1, f.repo.movementCount())
}

func TestConcurrentTransfersConserveStock(t *testing.T) {
	f := newFixture(t)
	a := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)
	b := f.repo.addRecord(f.item, f.storeY, 50, 0, 0)

	var applied atomic.Int64
	var g errgroup.Group
	for i := 0; i < 40; i++ {
		src, dst := a.ID, b.ID
		if i%2 == 1 {
			src, dst = b.ID, a.ID
		}
		g.Go(func() error {
			_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{
				Kind:                KindTransfer,
				Quantity:            -3,
				SourceRecordID:      src,
				DestinationRecordID: uuid.NullUUID{UUID: dst, Valid: true},
			})
			if err == nil {
				applied.Add(1)
				return nil
			}
			if errors.Is(err, shared.ErrInsufficientStock) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	finalA, finalB := f.repo.record(a.ID), f.repo.record(b.ID)
	require.Equal(t, int64(150), finalA.OnHand+finalB.OnHand)
	require.GreaterOrEqual(t, finalA.OnHand, int64(0))
	require.GreaterOrEqual(t, finalB.OnHand, int64(0))
	require.Equal(t, int(applied.Load()), f.repo.movementCount())
}

func TestMovementRequiresActorBrand(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)

	_, err := f.svc.PostMovement(context.Background(), f.managerB, MovementCommand{Kind: KindInbound, Quantity: 5, SourceRecordID: rec.ID})
	requireCode(t, err, shared.ErrCrossBrandActor, CodeCrossBrandActor)

	_, err = f.svc.PostMovement(context.Background(), f.admin, MovementCommand{Kind: KindInbound, Quantity: 5, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Equal(t, int64(105), f.repo.record(rec.ID).OnHand)
}

func TestMovementUnknownRecord(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 5, SourceRecordID: uuid.New()})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 5})
	requireCode(t, err, shared.ErrValidation, shared.CodeRequired)
}

func TestExtremeQuantitiesLeaveStockUntouched(t *testing.T) {
	f := newFixture(t)
	src := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)
	dst := f.repo.addRecord(f.item, f.storeY, 50, 0, 0)
	to := uuid.NullUUID{UUID: dst.ID, Valid: true}

	for _, cmd := range []MovementCommand{
		{Kind: KindOutbound, Quantity: math.MinInt64, SourceRecordID: src.ID},
		{Kind: KindInbound, Quantity: math.MaxInt64, SourceRecordID: src.ID},
		{Kind: KindAdjustment, Quantity: math.MinInt64, SourceRecordID: src.ID},
		{Kind: KindAdjustment, Quantity: math.MaxInt64, SourceRecordID: src.ID},
		{Kind: KindTransfer, Quantity: math.MinInt64, SourceRecordID: src.ID, DestinationRecordID: to},
	} {
		_, err := f.svc.PostMovement(context.Background(), f.staffA, cmd)
		requireCode(t, err, shared.ErrValidation, CodeQuantityOutOfRange)
	}
	require.Equal(t, int64(100), f.repo.record(src.ID).OnHand)
	require.Equal(t, int64(50), f.repo.record(dst.ID).OnHand)
	require.Zero(t, f.repo.movementCount())
}

func TestNegativeAdjustmentClampsAtZero(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 10, 8, 0)

	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindAdjustment, Quantity: -15, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Zero(t, res.Source.OnHand)
	require.Zero(t, res.Source.Reserved)
	require.Equal(t, int64(-15), res.Movement.Quantity)
}

func TestConflictsAreRetried(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 10, 0, 0)

	f.repo.conflicts = 2
	_, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 1, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Equal(t, int64(11), f.repo.record(rec.ID).OnHand)

	f.repo.conflicts = 3
	_, err = f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 1, SourceRecordID: rec.ID})
	requireCode(t, err, shared.ErrConcurrencyConflict, shared.CodeConcurrencyConflict)
	require.Equal(t, int64(11), f.repo.record(rec.ID).OnHand)
	require.Equal(t, 1, f.metrics.count("INBOUND", shared.CodeConcurrencyConflict))
}

func TestIdempotencyKeyBlocksReplay(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 10, 0, 0)
	cmd := MovementCommand{Kind: KindOutbound, Quantity: -20, SourceRecordID: rec.ID, IdempotencyKey: "k-1"}

	_, err := f.svc.PostMovement(context.Background(), f.managerA, cmd)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	cmd.Quantity = -4
	_, err = f.svc.PostMovement(context.Background(), f.managerA, cmd)
	require.NoError(t, err)

	_, err = f.svc.PostMovement(context.Background(), f.managerA, cmd)
	requireCode(t, err, shared.ErrDuplicate, shared.CodeDuplicate)
	require.Equal(t, int64(6), f.repo.record(rec.ID).OnHand)
	require.Equal(t, 1, f.repo.movementCount())

	// Keys belong to the actor that sent them.
	_, err = f.svc.PostMovement(context.Background(), f.admin, cmd)
	require.NoError(t, err)
	require.Equal(t, int64(2), f.repo.record(rec.ID).OnHand)
}

func TestLowStockEventRaised(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 90)

	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindOutbound, Quantity: -20, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.True(t, res.Source.BelowMinimum)
	require.Len(t, f.integration.events, 1)
	evt := f.integration.events[0]
	require.Equal(t, rec.ID, evt.RecordID)
	require.Equal(t, f.brandA, evt.BrandID)
	require.Equal(t, int64(80), evt.OnHand)
	require.Equal(t, res.Movement.ID, evt.MovementID)

	_, err = f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 50, SourceRecordID: rec.ID})
	require.NoError(t, err)
	require.Len(t, f.integration.events, 1)
}

func TestMovementsAreImmutable(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)
	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindOutbound, Quantity: -30, SourceRecordID: rec.ID})
	require.NoError(t, err)

	err = f.svc.UpdateMovement(context.Background(), f.admin, res.Movement.ID)
	requireCode(t, err, shared.ErrImmutable, CodeImmutable)

	err = f.svc.DeleteMovement(context.Background(), f.managerA, res.Movement.ID)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Equal(t, 1, f.repo.movementCount())

	require.NoError(t, f.svc.DeleteMovement(context.Background(), f.admin, res.Movement.ID))
	require.Zero(t, f.repo.movementCount())
	require.Equal(t, int64(70), f.repo.record(rec.ID).OnHand)
	require.Contains(t, f.audit.actions(), "inventory:movement.purge")

	err = f.svc.DeleteMovement(context.Background(), f.admin, res.Movement.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetMovementHidesOtherBrands(t *testing.T) {
	f := newFixture(t)
	rec := f.repo.addRecord(f.item, f.storeX, 100, 0, 0)
	res, err := f.svc.PostMovement(context.Background(), f.managerA, MovementCommand{Kind: KindInbound, Quantity: 1, SourceRecordID: rec.ID})
	require.NoError(t, err)

	got, err := f.svc.GetMovement(context.Background(), f.staffA, res.Movement.ID)
	require.NoError(t, err)
	require.Equal(t, res.Movement.ID, got.ID)

	_, err = f.svc.GetMovement(context.Background(), f.managerB, res.Movement.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	list, total, err := f.svc.ListMovements(context.Background(), f.managerB, MovementFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)

	_, _, err = f.svc.ListMovements(context.Background(), f.admin, MovementFilter{Kind: "RETURN"})
	requireCode(t, err, shared.ErrValidation, CodeInvalidKind)
}

func TestCreateRecordRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.svc.CreateRecord(ctx, f.managerA, RecordInput{ItemID: f.item.ID, LocationID: f.storeX.ID, OnHand: 10, Reserved: 2, MinimumLevel: 12})
	require.NoError(t, err)
	require.Equal(t, int64(8), view.Available)
	require.True(t, view.BelowMinimum)
	require.Equal(t, f.brandA, view.BrandID)

	_, err = f.svc.CreateRecord(ctx, f.managerA, RecordInput{ItemID: f.item.ID, LocationID: f.storeX.ID})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = f.svc.CreateRecord(ctx, f.admin, RecordInput{ItemID: f.item.ID, LocationID: f.storeB.ID})
	requireCode(t, err, shared.ErrCrossBrandMismatch, CodeCrossBrandMismatch)

	_, err = f.svc.CreateRecord(ctx, f.managerB, RecordInput{ItemID: f.item.ID, LocationID: f.storeY.ID})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = f.svc.CreateRecord(ctx, f.storeMgrA, RecordInput{ItemID: f.item.ID, LocationID: f.storeY.ID})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = f.svc.CreateRecord(ctx, f.managerA, RecordInput{ItemID: f.item.ID, LocationID: f.storeY.ID, OnHand: 1, Reserved: 2})
	requireCode(t, err, shared.ErrOverReservation, CodeOverReservation)

	_, err = f.svc.CreateRecord(ctx, f.managerA, RecordInput{ItemID: uuid.New(), LocationID: f.storeY.ID})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateRecordRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.repo.addRecord(f.item, f.storeX, 10, 0, 0)
	reserved := int64(4)

	_, err := f.svc.UpdateRecord(ctx, f.staffA, rec.ID, RecordPatch{Reserved: &reserved})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	_, err = f.svc.UpdateRecord(ctx, f.managerB, rec.ID, RecordPatch{Reserved: &reserved})
	require.ErrorIs(t, err, shared.ErrNotFound)

	view, err := f.svc.UpdateRecord(ctx, f.storeMgrA, rec.ID, RecordPatch{Reserved: &reserved})
	require.NoError(t, err)
	require.Equal(t, int64(6), view.Available)

	tooMany := int64(11)
	_, err = f.svc.UpdateRecord(ctx, f.storeMgrA, rec.ID, RecordPatch{Reserved: &tooMany})
	requireCode(t, err, shared.ErrOverReservation, CodeOverReservation)
	require.Equal(t, int64(4), f.repo.record(rec.ID).Reserved)

	negative := int64(-1)
	_, err = f.svc.UpdateRecord(ctx, f.managerA, rec.ID, RecordPatch{MinimumLevel: &negative})
	requireCode(t, err, shared.ErrValidation, CodeNegativeQuantity)
}

func TestDeleteRecordCascadesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.repo.addRecord(f.item, f.storeX, 10, 0, 0)
	_, err := f.svc.PostMovement(ctx, f.staffA, MovementCommand{Kind: KindInbound, Quantity: 5, SourceRecordID: rec.ID})
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.DeleteRecord(ctx, f.storeMgrA, rec.ID), shared.ErrPermissionDenied)
	require.ErrorIs(t, f.svc.DeleteRecord(ctx, f.managerB, rec.ID), shared.ErrNotFound)
	require.NoError(t, f.svc.DeleteRecord(ctx, f.managerA, rec.ID))

	_, err = f.svc.GetRecord(ctx, f.managerA, rec.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Zero(t, f.repo.movementCount())
}

func TestRecordVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := f.repo.addRecord(f.item, f.storeX, 10, 0, 0)
	itemB := f.repo.addItem(f.brandB, "B-SKU")
	f.repo.addRecord(itemB, f.storeB, 3, 0, 0)

	_, err := f.svc.GetRecord(ctx, f.managerB, rec.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	views, total, err := f.svc.ListRecords(ctx, f.staffA, RecordFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, rec.ID, views[0].ID)

	_, total, err = f.svc.ListRecords(ctx, f.admin, RecordFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	orphan := brandscope.Actor{ID: uuid.New(), Role: brandscope.RoleStaff}
	_, total, err = f.svc.ListRecords(ctx, orphan, RecordFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
}
