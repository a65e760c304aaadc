package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/shared"
)

// PathUUID parses a UUID route parameter.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, shared.NewFieldError(shared.ErrNotFound, name, shared.CodeNotFound, "resource not found")
	}
	return id, nil
}

// QueryUUID parses an optional UUID query parameter.
func QueryUUID(r *http.Request, name string) (uuid.NullUUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.NullUUID{}, shared.NewFieldError(shared.ErrValidation, name, shared.CodeInvalid, name+" must be a UUID")
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}
