package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/platform/db"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

const userColumns = `id, email, name, role, brand_id, is_active, deleted_at, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.BrandID, &u.IsActive, &u.DeletedAt, &u.CreatedAt, &u.UpdatedAt)
	u.Role = brandscope.Role(role)
	return u, err
}

// FindActive loads an active, non-deleted user.
func (r *Repository) FindActive(ctx context.Context, id uuid.UUID) (User, error) {
	return r.find(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active AND deleted_at IS NULL`, id)
}

// FindAny loads a user regardless of its active or deleted state.
func (r *Repository) FindAny(ctx context.Context, id uuid.UUID) (User, error) {
	return r.find(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Repository) find(ctx context.Context, query string, id uuid.UUID) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.NotFound("id", "user")
	}
	if err != nil {
		return User{}, fmt.Errorf("users: find: %w", err)
	}
	return u, nil
}

// ListActive returns non-deleted users visible under vis.
func (r *Repository) ListActive(ctx context.Context, vis brandscope.Visibility) ([]User, error) {
	if vis.None {
		return []User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	var args []any
	if !vis.All {
		args = append(args, vis.Brand)
		query += ` AND brand_id = $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY email`, args...)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Insert stores a new user.
func (r *Repository) Insert(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		u.ID, u.Email, u.Name, string(u.Role), u.BrandID, u.IsActive, u.DeletedAt, u.CreatedAt, u.UpdatedAt)
	if db.IsUniqueViolation(err, "users_email_key") {
		return shared.Duplicate("email", "a user with this email already exists")
	}
	return err
}

// SoftDelete marks a user deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("users: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.NotFound("id", "user")
	}
	return nil
}
