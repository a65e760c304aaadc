package products

import "github.com/google/uuid"

type ProductForm struct {
	BrandID    *uuid.UUID `json:"brand"`
	SKU        string     `json:"sku" validate:"required,max=100"`
	Name       string     `json:"name" validate:"required,max=255"`
	CategoryID *uuid.UUID `json:"category"`
	IsActive   *bool      `json:"is_active"`
}
