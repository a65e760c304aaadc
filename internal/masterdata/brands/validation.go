package brands

import (
	"strings"

	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

func (s *Service) validate(b *Brand) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return shared.Required("name")
	}
	if len(b.Name) > 255 {
		return shared.NewFieldError(shared.ErrValidation, "name", shared.CodeInvalid, "name is too long")
	}
	b.nameKey = mdshared.FoldKey(b.Name)
	return nil
}
