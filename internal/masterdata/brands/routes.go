package brands

import (
	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(brandscope.ActionCreate))
		r.Post("/", h.Create)
	})
	r.With(h.rbac.Require(brandscope.ActionUpdate)).Patch("/{id}", h.Update)
	r.With(h.rbac.Require(brandscope.ActionDelete)).Delete("/{id}", h.Delete)
}
