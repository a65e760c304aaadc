package products

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product entity
type Product struct {
	ID         uuid.UUID     `json:"id"`
	BrandID    uuid.UUID     `json:"brand_id"`
	SKU        string        `json:"sku"`
	Name       string        `json:"name"`
	CategoryID uuid.NullUUID `json:"category_id"`
	IsActive   bool          `json:"is_active"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	skuKey string
}
