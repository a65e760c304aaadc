package brands

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a tenant. All other data belongs to exactly one brand.
type Brand struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	nameKey string
}

// BrandForm carries writable brand fields.
type BrandForm struct {
	Name     string `json:"name" validate:"required,max=255"`
	IsActive *bool  `json:"is_active"`
}
