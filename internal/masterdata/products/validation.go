package products

import (
	"context"
	"errors"
	"strings"

	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

var errDuplicateSKU = shared.Duplicate("sku", "SKU must be unique within the brand (case-insensitive)")

func (s *Service) validate(ctx context.Context, p *Product) error {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	if p.SKU == "" {
		return shared.Required("sku")
	}
	if p.Name == "" {
		return shared.Required("name")
	}
	p.skuKey = mdshared.FoldKey(p.SKU)
	if !p.CategoryID.Valid {
		return nil
	}
	category, err := s.categories.Get(ctx, p.CategoryID.UUID)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NotFound("category", "category")
	}
	if err != nil {
		return err
	}
	if category.BrandID != p.BrandID {
		return mdshared.BrandMismatch("category", "category must belong to the same brand as the product")
	}
	return nil
}
