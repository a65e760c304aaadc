package shared

import "github.com/odyssey-erp/brandstock/internal/shared"

const (
	CodeCrossBrandMismatch = "CROSS_BRAND_MISMATCH"
	CodeCircularParent     = "CIRCULAR_PARENT"
)

// BrandMismatch reports a reference to an entity owned by another brand.
func BrandMismatch(field, message string) *shared.FieldError {
	return shared.NewFieldError(shared.ErrCrossBrandMismatch, field, CodeCrossBrandMismatch, message)
}
