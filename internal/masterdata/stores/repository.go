package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/platform/db"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// Repository exposes active-only and all-rows listings as separate methods.
type Repository interface {
	ListActive(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Store, int, error)
	ListAll(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Store, int, error)
	Get(ctx context.Context, id uuid.UUID) (Store, error)
	Create(ctx context.Context, store Store) error
	Update(ctx context.Context, store Store) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const storeColumns = `id, brand_id, name, code, is_active, created_at, updated_at`

var sortColumns = map[string]string{"name": "name", "code": "code", "created": "created_at"}

func scanStore(row pgx.Row) (Store, error) {
	var s Store
	err := row.Scan(&s.ID, &s.BrandID, &s.Name, &s.Code, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) ListActive(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Store, int, error) {
	return r.list(ctx, vis, filters, true)
}

func (r *repository) ListAll(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Store, int, error) {
	return r.list(ctx, vis, filters, false)
}

func (r *repository) list(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters, activeOnly bool) ([]Store, int, error) {
	if vis.None {
		return []Store{}, 0, nil
	}
	var q mdshared.Query
	q.Brand("brand_id", vis)
	if activeOnly {
		q.Raw("is_active")
	}
	q.Search(filters.Search, "name", "code")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stores`+q.Where(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("stores: count: %w", err)
	}
	query := `SELECT ` + storeColumns + ` FROM stores` + q.Where() +
		` ORDER BY ` + mdshared.SortOrder(filters.SortBy, filters.SortDir, sortColumns, "name") + q.Page(filters)
	rows, err := r.db.Query(ctx, query, q.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("stores: list: %w", err)
	}
	defer rows.Close()
	out := []Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Store, error) {
	s, err := scanStore(r.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Store{}, shared.NotFound("id", "store")
	}
	return s, err
}

func (r *repository) Create(ctx context.Context, s Store) error {
	_, err := r.db.Exec(ctx, `INSERT INTO stores (id, brand_id, name, name_key, code, code_key, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.BrandID, s.Name, s.nameKey, s.Code, s.codeKey, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return mapWriteError(err)
}

func (r *repository) Update(ctx context.Context, s Store) error {
	tag, err := r.db.Exec(ctx, `UPDATE stores SET name=$2, name_key=$3, code=$4, code_key=$5, is_active=$6, updated_at=$7 WHERE id=$1`,
		s.ID, s.Name, s.nameKey, s.Code, s.codeKey, s.IsActive, s.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "store")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stores WHERE id=$1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "store")
	}
	return nil
}

func mapWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, "stores_brand_name_key"):
		return errDuplicateName
	case db.IsUniqueViolation(err, "stores_brand_code_key"):
		return errDuplicateCode
	default:
		return db.Classify(err)
	}
}
