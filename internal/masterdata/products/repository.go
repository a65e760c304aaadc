package products

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
	ListActive(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Product, int, error)
	ListAll(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id uuid.UUID) (Product, error)
	Create(ctx context.Context, product Product) error
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, brand_id, sku, name, category_id, is_active, created_at, updated_at`

var sortColumns = map[string]string{"sku": "sku", "name": "name", "created": "created_at"}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.BrandID, &p.SKU, &p.Name, &p.CategoryID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) ListActive(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Product, int, error) {
	return r.list(ctx, vis, filters, true)
}

func (r *repository) ListAll(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters) ([]Product, int, error) {
	return r.list(ctx, vis, filters, false)
}

func (r *repository) list(ctx context.Context, vis brandscope.Visibility, filters mdshared.ListFilters, activeOnly bool) ([]Product, int, error) {
	if vis.None {
		return []Product{}, 0, nil
	}
	var q mdshared.Query
	q.Brand("brand_id", vis)
	if activeOnly {
		q.Raw("is_active")
	}
	if filters.CategoryID != nil {
		categoryID, err := uuid.Parse(*filters.CategoryID)
		if err != nil {
			return nil, 0, shared.NewFieldError(shared.ErrValidation, "category_id", shared.CodeInvalid, "category_id must be a UUID")
		}
		q.Eq("category_id", categoryID)
	}
	q.Search(filters.Search, "sku", "name")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+q.Where(), q.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}
	query := `SELECT ` + productColumns + ` FROM products` + q.Where() +
		` ORDER BY ` + mdshared.SortOrder(filters.SortBy, filters.SortDir, sortColumns, "created_at") + q.Page(filters)
	rows, err := r.db.Query(ctx, query, q.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.NotFound("id", "product")
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, p Product) error {
	_, err := r.db.Exec(ctx, `INSERT INTO products (id, brand_id, sku, sku_key, name, category_id, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.BrandID, p.SKU, p.skuKey, p.Name, p.CategoryID, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return mapWriteError(err)
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET sku=$2, sku_key=$3, name=$4, category_id=$5, is_active=$6, updated_at=$7 WHERE id=$1`,
		p.ID, p.SKU, p.skuKey, p.Name, p.CategoryID, p.IsActive, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "product")
	}
	return nil
}

// Delete removes a product and, by cascade, its inventory records and their ledger.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return db.Classify(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "product")
	}
	return nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err, "products_brand_sku_key") {
		return errDuplicateSKU
	}
	return db.Classify(err)
}
