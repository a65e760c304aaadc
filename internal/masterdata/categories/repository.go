package categories

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
	List(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	Create(ctx context.Context, category Category) error
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const categoryColumns = `id, brand_id, name, parent_id, created_at, updated_at`

var sortColumns = map[string]string{"name": "name", "created": "created_at"}

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.BrandID, &c.Name, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Category, int, error) {
	if vis.None {
		return []Category{}, 0, nil
	}
	var q mdshared.Query
	q.Brand("brand_id", vis)
	q.Search(filters.Search, "name")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+q.Where(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("categories: count: %w", err)
	}
	query := `SELECT ` + categoryColumns + ` FROM categories` + q.Where() +
		` ORDER BY ` + mdshared.SortOrder(filters.SortBy, filters.SortDir, sortColumns, "name") + q.Page(filters)
	rows, err := r.db.Query(ctx, query, q.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("categories: list: %w", err)
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.NotFound("id", "category")
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c Category) error {
	_, err := r.db.Exec(ctx, `INSERT INTO categories (id, brand_id, name, name_key, parent_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, c.ID, c.BrandID, c.Name, c.nameKey, c.ParentID, c.CreatedAt, c.UpdatedAt)
	return mapWriteError(err)
}

func (r *repository) Update(ctx context.Context, c Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET name=$2, name_key=$3, parent_id=$4, updated_at=$5 WHERE id=$1`,
		c.ID, c.Name, c.nameKey, c.ParentID, c.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "category")
	}
	return nil
}

// Delete removes a category. Children and products keep existing with their
// reference cleared.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "category")
	}
	return nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "categories_brand_name_key") {
		return errDuplicateName
	}
	return db.Classify(err)
}
