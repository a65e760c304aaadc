package brands

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

type Repository interface {
	List(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Brand, int, error)
	Get(ctx context.Context, id uuid.UUID) (Brand, error)
	Create(ctx context.Context, brand Brand) error
	Update(ctx context.Context, brand Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const brandColumns = `id, name, is_active, created_at, updated_at`

var sortColumns = map[string]string{"name": "name", "created": "created_at"}

func scanBrand(row pgx.Row) (Brand, error) {
	var b Brand
	err := row.Scan(&b.ID, &b.Name, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) List(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Brand, int, error) {
	if vis.None {
		return []Brand{}, 0, nil
	}
	var q mdshared.Query
	q.Brand("id", vis)
	q.Search(filters.Search, "name")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM brands`+q.Where(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("brands: count: %w", err)
	}
	query := `SELECT ` + brandColumns + ` FROM brands` + q.Where() +
		` ORDER BY ` + mdshared.SortOrder(filters.SortBy, filters.SortDir, sortColumns, "name") + q.Page(filters)
	rows, err := r.db.Query(ctx, query, q.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("brands: list: %w", err)
	}
	defer rows.Close()
	out := []Brand{}
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Brand, error) {
	b, err := scanBrand(r.db.QueryRow(ctx, `SELECT `+brandColumns+` FROM brands WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Brand{}, shared.NotFound("id", "brand")
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, b Brand) error {
	_, err := r.db.Exec(ctx, `INSERT INTO brands (id, name, name_key, is_active, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.Name, b.nameKey, b.IsActive, b.CreatedAt, b.UpdatedAt)
	return mapWriteError(err)
}

func (r *repository) Update(ctx context.Context, b Brand) error {
	tag, err := r.db.Exec(ctx, `UPDATE brands SET name=$2, name_key=$3, is_active=$4, updated_at=$5 WHERE id=$1`,
		b.ID, b.Name, b.nameKey, b.IsActive, b.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "brand")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM brands WHERE id=$1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "brand")
	}
	return nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "brands_name_key_key") {
		return errDuplicateName
	}
	return db.Classify(err)
}
