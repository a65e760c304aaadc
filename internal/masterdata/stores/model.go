package stores

import (
	"time"

	"github.com/google/uuid"
)

// Store is a physical location of a brand.
type Store struct {
	ID        uuid.UUID `json:"id"`
	BrandID   uuid.UUID `json:"brand_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	nameKey string
	codeKey string
}

// StoreForm carries writable store fields. Brand is only read on create.
type StoreForm struct {
	BrandID  *uuid.UUID `json:"brand"`
	Name     string     `json:"name" validate:"required,max=255"`
	Code     string     `json:"code" validate:"required,max=50"`
	IsActive *bool      `json:"is_active"`
}
