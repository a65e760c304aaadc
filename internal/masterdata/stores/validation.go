package stores

import (
	"strings"

	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

var (
	errDuplicateName = shared.Duplicate("name", "store name must be unique within the brand (case-insensitive)")
	errDuplicateCode = shared.Duplicate("code", "store code must be unique within the brand (case-insensitive)")
)

func (s *Service) validate(st *Store) error {
	st.Name = strings.TrimSpace(st.Name)
	st.Code = strings.TrimSpace(st.Code)
	if st.Name == "" {
		return shared.Required("name")
	}
	if st.Code == "" {
		return shared.Required("code")
	}
	if len(st.Code) > 50 {
		return shared.NewFieldError(shared.ErrValidation, "code", shared.CodeInvalid, "code is too long")
	}
	st.nameKey = mdshared.FoldKey(st.Name)
	st.codeKey = mdshared.FoldKey(st.Code)
	return nil
}
