package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
)

// User represents a user account. Deleted users keep their row so ledger
// entries can still name them.
type User struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Name      string          `json:"name"`
	Role      brandscope.Role `json:"role"`
	BrandID   uuid.NullUUID   `json:"brand_id"`
	IsActive  bool            `json:"is_active"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Actor converts the account to the principal used by policy checks.
func (u User) Actor() brandscope.Actor {
	return brandscope.Actor{ID: u.ID, Role: u.Role, Brand: u.BrandID}
}

// Usable reports whether the account may act.
func (u User) Usable() bool {
	return u.IsActive && u.DeletedAt == nil
}

// CreateInput carries the fields for a new account.
type CreateInput struct {
	Email   string
	Name    string
	Role    brandscope.Role
	BrandID uuid.NullUUID
}
