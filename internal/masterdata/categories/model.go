package categories

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products of a brand. Parents must belong to the same brand.
type Category struct {
	ID        uuid.UUID     `json:"id"`
	BrandID   uuid.UUID     `json:"brand_id"`
	Name      string        `json:"name"`
	ParentID  uuid.NullUUID `json:"parent_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	nameKey string
}

type CategoryForm struct {
	BrandID  *uuid.UUID `json:"brand"`
	Name     string     `json:"name" validate:"required,max=255"`
	ParentID *uuid.UUID `json:"parent"`
}
