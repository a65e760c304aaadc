package categories

import (
	"context"
	"strings"

	"github.com/google/uuid"

	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

// maxDepth bounds the ancestor walk when checking for cycles.
const maxDepth = 64

var errDuplicateName = shared.Duplicate("name", "category name must be unique within the brand (case-insensitive)")

func (s *Service) validate(ctx context.Context, c *Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return shared.Required("name")
	}
	c.nameKey = mdshared.FoldKey(c.Name)
	if !c.ParentID.Valid {
		return nil
	}
	return s.checkParent(ctx, c.ID, c.BrandID, c.ParentID.UUID)
}

// checkParent walks the ancestors of parentID and rejects a foreign brand or
// a chain that leads back to id.
func (s *Service) checkParent(ctx context.Context, id, brandID, parentID uuid.UUID) error {
	next := parentID
	for depth := 0; depth < maxDepth; depth++ {
		if next == id {
			return shared.NewFieldError(shared.ErrValidation, "parent", mdshared.CodeCircularParent,
				"a category cannot be its own ancestor")
		}
		parent, err := s.repo.Get(ctx, next)
		if err != nil {
			if depth == 0 {
				return shared.NotFound("parent", "parent category")
			}
			return err
		}
		if depth == 0 && parent.BrandID != brandID {
			return mdshared.BrandMismatch("parent", "parent category must belong to the same brand")
		}
		if !parent.ParentID.Valid {
			return nil
		}
		next = parent.ParentID.UUID
	}
	return shared.NewFieldError(shared.ErrValidation, "parent", mdshared.CodeCircularParent, "category tree is too deep")
}
