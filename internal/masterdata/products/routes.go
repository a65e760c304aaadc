package products

import (
	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.With(h.rbac.Require(brandscope.ActionCreate)).Post("/", h.Create)
	r.With(h.rbac.Require(brandscope.ActionUpdate)).Patch("/{id}", h.Update)
	r.With(h.rbac.Require(brandscope.ActionDelete)).Delete("/{id}", h.Delete)
}
