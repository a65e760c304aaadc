package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/platform/db"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	// LockRecords locks the records FOR UPDATE one by one in the given order.
	LockRecords(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Record, error)
	ResolveItem(ctx context.Context, id uuid.UUID) (ItemRef, error)
	ResolveLocation(ctx context.Context, id uuid.UUID) (LocationRef, error)
	InsertRecord(ctx context.Context, record Record) error
	UpdateRecord(ctx context.Context, record Record) error
	DeleteRecord(ctx context.Context, id uuid.UUID) error
	InsertMovement(ctx context.Context, movement Movement) error
	DeleteMovement(ctx context.Context, id uuid.UUID) (Movement, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("inventory repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const recordColumns = `r.id, r.quantity_on_hand, r.reserved_quantity, r.minimum_stock_level, r.created_at, r.updated_at,
p.id, p.brand_id, p.sku, p.name, s.id, s.brand_id, s.code, s.name`

const recordFrom = `FROM inventory_records r
JOIN products p ON p.id = r.product_id
JOIN stores s ON s.id = r.store_id`

const movementColumns = `m.id, m.movement_type, m.quantity, m.product_store_id, m.destination_product_store_id, m.brand_id,
m.product_id, m.store_id, m.reference_number, m.notes, m.created_by, m.created_at`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.OnHand, &rec.Reserved, &rec.MinimumLevel, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.Item.ID, &rec.Item.BrandID, &rec.Item.SKU, &rec.Item.Name,
		&rec.Location.ID, &rec.Location.BrandID, &rec.Location.Code, &rec.Location.Name)
	return rec, err
}

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	var kind string
	err := row.Scan(&m.ID, &kind, &m.Quantity, &m.SourceRecordID, &m.DestinationRecordID, &m.BrandID,
		&m.ItemID, &m.LocationID, &m.ReferenceNumber, &m.Notes, &m.ActorID, &m.CreatedAt)
	m.Kind = MovementKind(kind)
	return m, err
}

// GetRecord loads one record.
func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (Record, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordColumns+` `+recordFrom+` WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, shared.NotFound("id", "inventory record")
	}
	return rec, err
}

// ListRecords lists records visible under vis.
func (r *Repository) ListRecords(ctx context.Context, vis brandscope.Visibility, filter RecordFilter) ([]Record, int, error) {
	if vis.None {
		return []Record{}, 0, nil
	}
	where := newWhere()
	where.add("p.brand_id", vis.BrandParam())
	if filter.ItemID.Valid {
		where.add("r.product_id", filter.ItemID.UUID)
	}
	if filter.LocationID.Valid {
		where.add("r.store_id", filter.LocationID.UUID)
	}
	return r.queryRecords(ctx, where, "", filter.Limit, filter.Offset)
}

// LowStock lists records under their minimum level. The brand predicate is
// placed ahead of the threshold predicate in the same statement, so rows of
// other brands never leave the database.
func (r *Repository) LowStock(ctx context.Context, vis brandscope.Visibility, limit, offset int) ([]Record, int, error) {
	if vis.None {
		return []Record{}, 0, nil
	}
	where := newWhere()
	where.add("p.brand_id", vis.BrandParam())
	return r.queryRecords(ctx, where, "r.quantity_on_hand < r.minimum_stock_level", limit, offset)
}

// LowStockCounts returns the number of records under their minimum level per brand.
func (r *Repository) LowStockCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.brand_id, COUNT(*) `+recordFrom+`
WHERE r.quantity_on_hand < r.minimum_stock_level GROUP BY p.brand_id`)
	if err != nil {
		return nil, fmt.Errorf("inventory: low stock counts: %w", err)
	}
	defer rows.Close()
	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var brand uuid.UUID
		var n int
		if err := rows.Scan(&brand, &n); err != nil {
			return nil, err
		}
		counts[brand] = n
	}
	return counts, rows.Err()
}

func (r *Repository) queryRecords(ctx context.Context, where *whereBuilder, extra string, limit, offset int) ([]Record, int, error) {
	clause := where.sql(extra)
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+recordFrom+clause, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("inventory: count records: %w", err)
	}
	args := append(where.args, clampLimit(limit), max(offset, 0))
	query := `SELECT ` + recordColumns + ` ` + recordFrom + clause +
		` ORDER BY r.created_at DESC, r.id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("inventory: list records: %w", err)
	}
	defer rows.Close()
	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// GetMovement loads one ledger entry.
func (r *Repository) GetMovement(ctx context.Context, id uuid.UUID) (Movement, error) {
	m, err := scanMovement(r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements m WHERE m.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, shared.NotFound("id", "stock movement")
	}
	return m, err
}

// ListMovements lists ledger entries newest first.
func (r *Repository) ListMovements(ctx context.Context, vis brandscope.Visibility, filter MovementFilter) ([]Movement, int, error) {
	if vis.None {
		return []Movement{}, 0, nil
	}
	where := newWhere()
	where.add("m.brand_id", vis.BrandParam())
	if filter.RecordID.Valid {
		where.add("m.product_store_id", filter.RecordID.UUID)
	}
	if filter.Kind != "" {
		where.add("m.movement_type", string(filter.Kind))
	}
	return r.queryMovements(ctx, where, filter.Limit, filter.Offset)
}

// History lists ledger entries for one item or one location, newest first.
func (r *Repository) History(ctx context.Context, vis brandscope.Visibility, filter HistoryFilter) ([]Movement, int, error) {
	if vis.None {
		return []Movement{}, 0, nil
	}
	where := newWhere()
	where.add("m.brand_id", vis.BrandParam())
	if filter.ItemID.Valid {
		where.add("m.product_id", filter.ItemID.UUID)
	}
	if filter.LocationID.Valid {
		where.add("m.store_id", filter.LocationID.UUID)
	}
	return r.queryMovements(ctx, where, filter.Limit, filter.Offset)
}

func (r *Repository) queryMovements(ctx context.Context, where *whereBuilder, limit, offset int) ([]Movement, int, error) {
	clause := where.sql("")
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements m`+clause, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("inventory: count movements: %w", err)
	}
	args := append(where.args, clampLimit(limit), max(offset, 0))
	query := `SELECT ` + movementColumns + ` FROM stock_movements m` + clause +
		` ORDER BY m.created_at DESC, m.id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("inventory: list movements: %w", err)
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}

func (t *txRepository) LockRecords(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Record, error) {
	locked := make(map[uuid.UUID]Record, len(ids))
	for _, id := range ids {
		rec, err := scanRecord(t.tx.QueryRow(ctx, `SELECT `+recordColumns+` `+recordFrom+` WHERE r.id = $1 FOR UPDATE OF r`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return nil, err
		}
		locked[id] = rec
	}
	return locked, nil
}

func (t *txRepository) ResolveItem(ctx context.Context, id uuid.UUID) (ItemRef, error) {
	var item ItemRef
	err := t.tx.QueryRow(ctx, `SELECT id, brand_id, sku, name FROM products WHERE id = $1`, id).
		Scan(&item.ID, &item.BrandID, &item.SKU, &item.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return ItemRef{}, shared.NotFound("product", "product")
	}
	return item, err
}

func (t *txRepository) ResolveLocation(ctx context.Context, id uuid.UUID) (LocationRef, error) {
	var loc LocationRef
	err := t.tx.QueryRow(ctx, `SELECT id, brand_id, code, name FROM stores WHERE id = $1`, id).
		Scan(&loc.ID, &loc.BrandID, &loc.Code, &loc.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return LocationRef{}, shared.NotFound("store", "store")
	}
	return loc, err
}

func (t *txRepository) InsertRecord(ctx context.Context, rec Record) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO inventory_records (id, product_id, store_id, quantity_on_hand, reserved_quantity, minimum_stock_level, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, rec.ID, rec.Item.ID, rec.Location.ID, rec.OnHand, rec.Reserved, rec.MinimumLevel, rec.CreatedAt, rec.UpdatedAt)
	if db.IsUniqueViolation(err, "inventory_records_product_store_key") {
		return shared.Duplicate("product", "inventory for this product and store already exists")
	}
	return err
}

func (t *txRepository) UpdateRecord(ctx context.Context, rec Record) error {
	tag, err := t.tx.Exec(ctx, `UPDATE inventory_records SET quantity_on_hand=$2, reserved_quantity=$3, minimum_stock_level=$4, updated_at=$5 WHERE id=$1`,
		rec.ID, rec.OnHand, rec.Reserved, rec.MinimumLevel, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "inventory record")
	}
	return nil
}

func (t *txRepository) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM inventory_records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "inventory record")
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, m Movement) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO stock_movements (id, movement_type, quantity, product_store_id, destination_product_store_id, brand_id, product_id, store_id, reference_number, notes, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		m.ID, string(m.Kind), m.Quantity, m.SourceRecordID, m.DestinationRecordID, m.BrandID, m.ItemID, m.LocationID,
		m.ReferenceNumber, m.Notes, m.ActorID, m.CreatedAt)
	return err
}

func (t *txRepository) DeleteMovement(ctx context.Context, id uuid.UUID) (Movement, error) {
	m, err := scanMovement(t.tx.QueryRow(ctx, `DELETE FROM stock_movements m WHERE m.id = $1 RETURNING `+movementColumns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, shared.NotFound("id", "stock movement")
	}
	return m, err
}

type whereBuilder struct {
	parts []string
	args  []any
}

func newWhere() *whereBuilder {
	return &whereBuilder{}
}

// add appends column = $n; a nil value adds nothing.
func (w *whereBuilder) add(column string, value any) {
	if value == nil {
		return
	}
	w.args = append(w.args, value)
	w.parts = append(w.parts, column+" = $"+strconv.Itoa(len(w.args)))
}

func (w *whereBuilder) sql(extra string) string {
	parts := w.parts
	if extra != "" {
		parts = append(append([]string{}, parts...), extra)
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}
