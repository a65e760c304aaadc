package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// memoryRepo is a transactional in-memory store. Record locks are held until
// the enclosing WithTx returns; writes are staged and applied on commit.
type memoryRepo struct {
	mu        sync.Mutex
	locks     map[uuid.UUID]*sync.Mutex
	items     map[uuid.UUID]ItemRef
	locations map[uuid.UUID]LocationRef
	records   map[uuid.UUID]Record
	movements map[uuid.UUID]Movement
	conflicts int
	commits   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		locks:     make(map[uuid.UUID]*sync.Mutex),
		items:     make(map[uuid.UUID]ItemRef),
		locations: make(map[uuid.UUID]LocationRef),
		records:   make(map[uuid.UUID]Record),
		movements: make(map[uuid.UUID]Movement),
	}
}

func (r *memoryRepo) addItem(brand uuid.UUID, sku string) ItemRef {
	item := ItemRef{ID: uuid.New(), BrandID: brand, SKU: sku, Name: sku}
	r.items[item.ID] = item
	return item
}

func (r *memoryRepo) addLocation(brand uuid.UUID, code string) LocationRef {
	loc := LocationRef{ID: uuid.New(), BrandID: brand, Code: code, Name: code}
	r.locations[loc.ID] = loc
	return loc
}

func (r *memoryRepo) addRecord(item ItemRef, loc LocationRef, onHand, reserved, minimum int64) Record {
	rec := Record{ID: uuid.New(), Item: item, Location: loc, OnHand: onHand, Reserved: reserved, MinimumLevel: minimum}
	r.records[rec.ID] = rec
	return rec
}

func (r *memoryRepo) record(id uuid.UUID) Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

func (r *memoryRepo) movementCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movements)
}

func (r *memoryRepo) lockFor(id uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

type memoryTx struct {
	repo             *memoryRepo
	held             []*sync.Mutex
	records          map[uuid.UUID]Record
	deletedRecords   []uuid.UUID
	movements        []Movement
	deletedMovements []uuid.UUID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	if r.conflicts > 0 {
		r.conflicts--
		r.mu.Unlock()
		return shared.NewFieldError(shared.ErrConcurrencyConflict, "", shared.CodeConcurrencyConflict, "could not serialize access")
	}
	r.mu.Unlock()

	tx := &memoryTx{repo: r, records: make(map[uuid.UUID]Record)}
	defer func() {
		for i := len(tx.held) - 1; i >= 0; i-- {
			tx.held[i].Unlock()
		}
	}()
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range tx.records {
		r.records[id] = rec
	}
	for _, id := range tx.deletedRecords {
		delete(r.records, id)
		for mid, m := range r.movements {
			if m.SourceRecordID == id || (m.DestinationRecordID.Valid && m.DestinationRecordID.UUID == id) {
				delete(r.movements, mid)
			}
		}
	}
	for _, m := range tx.movements {
		r.movements[m.ID] = m
	}
	for _, id := range tx.deletedMovements {
		delete(r.movements, id)
	}
	r.commits++
	return nil
}

func (tx *memoryTx) LockRecords(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Record, error) {
	out := make(map[uuid.UUID]Record, len(ids))
	for _, id := range ids {
		l := tx.repo.lockFor(id)
		l.Lock()
		tx.held = append(tx.held, l)
		tx.repo.mu.Lock()
		rec, ok := tx.repo.records[id]
		tx.repo.mu.Unlock()
		if ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (tx *memoryTx) ResolveItem(ctx context.Context, id uuid.UUID) (ItemRef, error) {
	item, ok := tx.repo.items[id]
	if !ok {
		return ItemRef{}, shared.NotFound("product", "product")
	}
	return item, nil
}

func (tx *memoryTx) ResolveLocation(ctx context.Context, id uuid.UUID) (LocationRef, error) {
	loc, ok := tx.repo.locations[id]
	if !ok {
		return LocationRef{}, shared.NotFound("store", "store")
	}
	return loc, nil
}

func (tx *memoryTx) InsertRecord(ctx context.Context, rec Record) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	for _, existing := range tx.repo.records {
		if existing.Item.ID == rec.Item.ID && existing.Location.ID == rec.Location.ID {
			return shared.Duplicate("product", "inventory for this product and store already exists")
		}
	}
	tx.records[rec.ID] = rec
	return nil
}

func (tx *memoryTx) UpdateRecord(ctx context.Context, rec Record) error {
	tx.records[rec.ID] = rec
	return nil
}

func (tx *memoryTx) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	tx.deletedRecords = append(tx.deletedRecords, id)
	return nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) error {
	tx.movements = append(tx.movements, m)
	return nil
}

func (tx *memoryTx) DeleteMovement(ctx context.Context, id uuid.UUID) (Movement, error) {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	m, ok := tx.repo.movements[id]
	if !ok {
		return Movement{}, shared.NotFound("id", "stock movement")
	}
	tx.deletedMovements = append(tx.deletedMovements, id)
	return m, nil
}

func (r *memoryRepo) GetRecord(ctx context.Context, id uuid.UUID) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, shared.NotFound("id", "inventory record")
	}
	return rec, nil
}

func (r *memoryRepo) ListRecords(ctx context.Context, vis brandscope.Visibility, filter RecordFilter) ([]Record, int, error) {
	return r.filterRecords(func(rec Record) bool {
		if !vis.Includes(rec.BrandID()) {
			return false
		}
		if filter.ItemID.Valid && rec.Item.ID != filter.ItemID.UUID {
			return false
		}
		return !filter.LocationID.Valid || rec.Location.ID == filter.LocationID.UUID
	}, filter.Limit, filter.Offset)
}

func (r *memoryRepo) LowStock(ctx context.Context, vis brandscope.Visibility, limit, offset int) ([]Record, int, error) {
	return r.filterRecords(func(rec Record) bool {
		return vis.Includes(rec.BrandID()) && rec.BelowMinimum()
	}, limit, offset)
}

func (r *memoryRepo) filterRecords(keep func(Record) bool, limit, offset int) ([]Record, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Record{}
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return paginate(out, limit, offset), len(out), nil
}

func (r *memoryRepo) GetMovement(ctx context.Context, id uuid.UUID) (Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movements[id]
	if !ok {
		return Movement{}, shared.NotFound("id", "stock movement")
	}
	return m, nil
}

func (r *memoryRepo) ListMovements(ctx context.Context, vis brandscope.Visibility, filter MovementFilter) ([]Movement, int, error) {
	return r.filterMovements(func(m Movement) bool {
		if !vis.Includes(m.BrandID) {
			return false
		}
		if filter.RecordID.Valid && m.SourceRecordID != filter.RecordID.UUID {
			return false
		}
		return filter.Kind == "" || m.Kind == filter.Kind
	}, filter.Limit, filter.Offset)
}

func (r *memoryRepo) History(ctx context.Context, vis brandscope.Visibility, filter HistoryFilter) ([]Movement, int, error) {
	return r.filterMovements(func(m Movement) bool {
		if !vis.Includes(m.BrandID) {
			return false
		}
		if filter.ItemID.Valid && m.ItemID != filter.ItemID.UUID {
			return false
		}
		return !filter.LocationID.Valid || m.LocationID == filter.LocationID.UUID
	}, filter.Limit, filter.Offset)
}

func (r *memoryRepo) filterMovements(keep func(Movement) bool, limit, offset int) ([]Movement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Movement{}
	for _, m := range r.movements {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), len(out), nil
}

func paginate[T any](rows []T, limit, offset int) []T {
	limit = clampLimit(limit)
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *memoryAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type idempotencyKey struct {
	module string
	actor  uuid.UUID
	key    string
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[idempotencyKey]struct{}
}

func (m *memoryIdempotency) Claim(ctx context.Context, module string, actorID uuid.UUID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = make(map[idempotencyKey]struct{})
	}
	k := idempotencyKey{module, actorID, key}
	if _, ok := m.keys[k]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[k] = struct{}{}
	return nil
}

func (m *memoryIdempotency) Release(ctx context.Context, module string, actorID uuid.UUID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, idempotencyKey{module, actorID, key})
	return nil
}

type recordingIntegration struct {
	mu     sync.Mutex
	events []LowStockEvent
}

func (r *recordingIntegration) HandleLowStock(ctx context.Context, evt LowStockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *recordingObserver) ObserveMovement(kind, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string]int)
	}
	o.outcomes[kind+":"+outcome]++
}

func (o *recordingObserver) count(kind, outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[kind+":"+outcome]
}
