package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetRecord(ctx context.Context, id uuid.UUID) (Record, error)
	ListRecords(ctx context.Context, vis brandscope.Visibility, filter RecordFilter) ([]Record, int, error)
	LowStock(ctx context.Context, vis brandscope.Visibility, limit, offset int) ([]Record, int, error)
	GetMovement(ctx context.Context, id uuid.UUID) (Movement, error)
	ListMovements(ctx context.Context, vis brandscope.Visibility, filter MovementFilter) ([]Movement, int, error)
	History(ctx context.Context, vis brandscope.Visibility, filter HistoryFilter) ([]Movement, int, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

const idempotencyModule = "inventory:movement"

// IdempotencyPort guards movement creation against replays.
type IdempotencyPort interface {
	Claim(ctx context.Context, module string, actorID uuid.UUID, key string) error
	Release(ctx context.Context, module string, actorID uuid.UUID, key string) error
}

// LowStockCache caches low-stock pages.
type LowStockCache interface {
	FetchLowStock(ctx context.Context, vis brandscope.Visibility, limit, offset int, loader func(context.Context) (LowStockPage, error)) (LowStockPage, error)
	Bump(ctx context.Context, brandID uuid.UUID) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// MaxAttempts bounds how often a movement is tried on concurrency conflicts.
	MaxAttempts  int
	RetryBackoff time.Duration
}

// ServiceDeps groups collaborators. Only Repo is required.
type ServiceDeps struct {
	Repo        RepositoryPort
	Audit       AuditPort
	Idempotency IdempotencyPort
	Cache       LowStockCache
	Integration IntegrationHandler
	Metrics     MovementObserver
	Logger      *slog.Logger
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	cache       LowStockCache
	integration IntegrationHandler
	metrics     MovementObserver
	logger      *slog.Logger
	cfg         ServiceConfig
	now         func() time.Time
	newID       func() uuid.UUID
}

// NewService builds Service.
func NewService(deps ServiceDeps, cfg ServiceConfig) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = 0
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        deps.Repo,
		audit:       deps.Audit,
		idempotency: deps.Idempotency,
		cache:       deps.Cache,
		integration: deps.Integration,
		metrics:     deps.Metrics,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.New,
	}
}

// PostMovement validates the command against locked record state and applies it.
// Concurrency conflicts are retried up to MaxAttempts times.
func (s *Service) PostMovement(ctx context.Context, actor brandscope.Actor, cmd MovementCommand) (MovementResult, error) {
	if cmd.SourceRecordID == uuid.Nil {
		return MovementResult{}, shared.Required("product_store")
	}
	claimed := false
	if cmd.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Claim(ctx, idempotencyModule, actor.ID, cmd.IdempotencyKey); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return MovementResult{}, shared.Duplicate("idempotency_key", "movement already posted for this idempotency key")
			}
			return MovementResult{}, err
		}
		claimed = true
	}

	var (
		result MovementResult
		err    error
	)
	for attempt := 1; ; attempt++ {
		result, err = s.postOnce(ctx, actor, cmd)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= s.cfg.MaxAttempts {
			break
		}
		s.logger.Warn("inventory movement conflict, retrying",
			slog.Int("attempt", attempt),
			slog.String("source_record_id", cmd.SourceRecordID.String()))
		if waitErr := sleepCtx(ctx, s.cfg.RetryBackoff*time.Duration(attempt)); waitErr != nil {
			err = waitErr
			break
		}
	}
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			if _, ok := shared.AsFieldError(err); !ok {
				err = shared.NewFieldError(shared.ErrConcurrencyConflict, "product_store", shared.CodeConcurrencyConflict,
					"stock record is busy, please retry")
			}
		}
		if claimed {
			if relErr := s.idempotency.Release(ctx, idempotencyModule, actor.ID, cmd.IdempotencyKey); relErr != nil {
				s.logger.Warn("inventory idempotency release", slog.Any("error", relErr))
			}
		}
		s.observe(cmd.Kind, outcomeOf(err))
		return MovementResult{}, err
	}

	s.observe(cmd.Kind, "applied")
	s.afterMovement(ctx, actor, result)
	return result, nil
}

func (s *Service) postOnce(ctx context.Context, actor brandscope.Actor, cmd MovementCommand) (MovementResult, error) {
	var result MovementResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockRecords(ctx, lockOrder(cmd))
		if err != nil {
			return err
		}
		source, ok := locked[cmd.SourceRecordID]
		if !ok {
			return shared.NotFound("product_store", "inventory record")
		}
		var destination *Record
		if cmd.DestinationRecordID.Valid {
			dest, ok := locked[cmd.DestinationRecordID.UUID]
			if !ok {
				return shared.NotFound("destination_product_store", "inventory record")
			}
			destination = &dest
		}

		validated, err := Validate(cmd, actor, source, destination)
		if err != nil {
			return err
		}
		entry, updated := Apply(validated, s.newID(), s.now())

		if err := tx.InsertMovement(ctx, entry); err != nil {
			return fmt.Errorf("inventory: insert movement: %w", err)
		}
		for _, rec := range updated {
			if err := rec.Validate(); err != nil {
				return err
			}
			if err := tx.UpdateRecord(ctx, rec); err != nil {
				return fmt.Errorf("inventory: update record: %w", err)
			}
		}

		result = MovementResult{Movement: entry, Source: updated[0].View()}
		if len(updated) > 1 {
			dest := updated[1].View()
			result.Destination = &dest
		}
		return nil
	})
	return result, err
}

// lockOrder returns the distinct record ids of cmd in ascending byte order.
func lockOrder(cmd MovementCommand) []uuid.UUID {
	ids := []uuid.UUID{cmd.SourceRecordID}
	if cmd.DestinationRecordID.Valid && cmd.DestinationRecordID.UUID != cmd.SourceRecordID {
		ids = append(ids, cmd.DestinationRecordID.UUID)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}

func (s *Service) afterMovement(ctx context.Context, actor brandscope.Actor, result MovementResult) {
	m := result.Movement
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "inventory:movement." + string(m.Kind),
		Entity:   "stock_movement",
		EntityID: m.ID.String(),
		Meta: map[string]any{
			"brand_id":          m.BrandID,
			"product_store_id":  m.SourceRecordID,
			"destination_id":    m.DestinationRecordID,
			"quantity":          m.Quantity,
			"reference_number":  m.ReferenceNumber,
			"source_on_hand":    result.Source.OnHand,
			"source_below_min":  result.Source.BelowMinimum,
		},
		At: m.CreatedAt,
	})
	s.bumpCache(ctx, m.BrandID)

	if s.integration == nil {
		return
	}
	for _, view := range []*RecordView{&result.Source, result.Destination} {
		if view == nil || !view.BelowMinimum {
			continue
		}
		if err := s.integration.HandleLowStock(ctx, lowStockEvent(view.Record, m.ID)); err != nil {
			s.logger.Error("inventory low stock notify", slog.Any("error", err), slog.String("record_id", view.ID.String()))
		}
	}
}

// CreateRecord starts tracking stock for an item at a location.
func (s *Service) CreateRecord(ctx context.Context, actor brandscope.Actor, in RecordInput) (RecordView, error) {
	if in.ItemID == uuid.Nil {
		return RecordView{}, shared.Required("product")
	}
	if in.LocationID == uuid.Nil {
		return RecordView{}, shared.Required("store")
	}
	var created Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.ResolveItem(ctx, in.ItemID)
		if err != nil {
			return err
		}
		location, err := tx.ResolveLocation(ctx, in.LocationID)
		if err != nil {
			return err
		}
		if err := brandscope.CanCreate(actor, uuid.NullUUID{UUID: item.BrandID, Valid: true}).Err(); err != nil {
			return err
		}
		rec := NewRecord(item, location, in)
		if err := rec.Validate(); err != nil {
			return err
		}
		now := s.now()
		rec.ID = s.newID()
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if err := tx.InsertRecord(ctx, rec); err != nil {
			return err
		}
		created = rec
		return nil
	})
	if err != nil {
		return RecordView{}, err
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "inventory:record.create",
		Entity:   "inventory_record",
		EntityID: created.ID.String(),
		Meta:     map[string]any{"product_id": created.Item.ID, "store_id": created.Location.ID, "quantity_on_hand": created.OnHand},
	})
	s.bumpCache(ctx, created.BrandID())
	return created.View(), nil
}

// UpdateRecord applies a direct counter edit. The record stays locked while
// the edit is validated so it cannot interleave with a movement.
func (s *Service) UpdateRecord(ctx context.Context, actor brandscope.Actor, id uuid.UUID, patch RecordPatch) (RecordView, error) {
	var updated Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockRecords(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		rec, ok := locked[id]
		if !ok || !brandscope.CanView(actor, rec.BrandID()) {
			return shared.NotFound("id", "inventory record")
		}
		if err := brandscope.CanMutate(actor, rec.BrandID(), brandscope.ActionUpdate).Err(); err != nil {
			return err
		}
		next := rec.Patch(patch)
		if err := next.Validate(); err != nil {
			return err
		}
		next.UpdatedAt = s.now()
		if err := tx.UpdateRecord(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return RecordView{}, err
	}
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "inventory:record.update",
		Entity:   "inventory_record",
		EntityID: updated.ID.String(),
		Meta: map[string]any{
			"quantity_on_hand":    updated.OnHand,
			"reserved_quantity":   updated.Reserved,
			"minimum_stock_level": updated.MinimumLevel,
		},
	})
	s.bumpCache(ctx, updated.BrandID())
	return updated.View(), nil
}

// DeleteRecord removes a record and, by cascade, its ledger entries.
func (s *Service) DeleteRecord(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	var brandID uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockRecords(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		rec, ok := locked[id]
		if !ok || !brandscope.CanView(actor, rec.BrandID()) {
			return shared.NotFound("id", "inventory record")
		}
		if err := brandscope.CanMutate(actor, rec.BrandID(), brandscope.ActionDelete).Err(); err != nil {
			return err
		}
		brandID = rec.BrandID()
		return tx.DeleteRecord(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, shared.AuditLog{ActorID: actor.ID, Action: "inventory:record.delete", Entity: "inventory_record", EntityID: id.String()})
	s.bumpCache(ctx, brandID)
	return nil
}

// GetRecord loads a record visible to actor.
func (s *Service) GetRecord(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (RecordView, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		return RecordView{}, err
	}
	if !brandscope.CanView(actor, rec.BrandID()) {
		return RecordView{}, shared.NotFound("id", "inventory record")
	}
	return rec.View(), nil
}

// ListRecords lists records visible to actor.
func (s *Service) ListRecords(ctx context.Context, actor brandscope.Actor, filter RecordFilter) ([]RecordView, int, error) {
	records, total, err := s.repo.ListRecords(ctx, brandscope.Visible(actor), filter)
	if err != nil {
		return nil, 0, err
	}
	return views(records), total, nil
}

// GetMovement loads a ledger entry visible to actor.
func (s *Service) GetMovement(ctx context.Context, actor brandscope.Actor, id uuid.UUID) (Movement, error) {
	m, err := s.repo.GetMovement(ctx, id)
	if err != nil {
		return Movement{}, err
	}
	if !brandscope.CanView(actor, m.BrandID) {
		return Movement{}, shared.NotFound("id", "stock movement")
	}
	return m, nil
}

// ListMovements lists ledger entries visible to actor, newest first.
func (s *Service) ListMovements(ctx context.Context, actor brandscope.Actor, filter MovementFilter) ([]Movement, int, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, 0, shared.NewFieldError(shared.ErrValidation, "movement_type", CodeInvalidKind, "unknown movement type")
	}
	return s.repo.ListMovements(ctx, brandscope.Visible(actor), filter)
}

// UpdateMovement always fails: ledger entries are write-once.
func (s *Service) UpdateMovement(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	return shared.NewFieldError(shared.ErrImmutable, "", CodeImmutable, "stock movements cannot be updated")
}

// DeleteMovement purges a ledger entry. Stock counters are left as they are.
func (s *Service) DeleteMovement(ctx context.Context, actor brandscope.Actor, id uuid.UUID) error {
	if err := brandscope.CanPurgeLedger(actor).Err(); err != nil {
		return err
	}
	var removed Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		m, err := tx.DeleteMovement(ctx, id)
		if err != nil {
			return err
		}
		removed = m
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Warn("inventory movement purged",
		slog.String("movement_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	s.recordAudit(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "inventory:movement.purge",
		Entity:   "stock_movement",
		EntityID: id.String(),
		Meta: map[string]any{
			"movement_type":    removed.Kind,
			"quantity":         removed.Quantity,
			"product_store_id": removed.SourceRecordID,
		},
	})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, log shared.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Error("inventory audit", slog.Any("error", err), slog.String("action", log.Action))
	}
}

func (s *Service) bumpCache(ctx context.Context, brandID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx, brandID); err != nil {
		s.logger.Warn("inventory cache bump", slog.Any("error", err))
	}
}

func (s *Service) observe(kind MovementKind, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveMovement(string(kind), outcome)
	}
}

func outcomeOf(err error) string {
	if fe, ok := shared.AsFieldError(err); ok {
		return fe.Code
	}
	return "error"
}

func views(records []Record) []RecordView {
	out := make([]RecordView, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.View())
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
