package brands

import (
	"log/slog"
	"net/http"

	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/platform/httpx"
	"github.com/odyssey-erp/brandstock/internal/rbac"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := rbac.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	filters := mdshared.FiltersFromQuery(r.URL.Query())
	brands, total, err := h.service.List(r.Context(), actor, filters)
	if err != nil {
		h.fail(w, "list brands", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mdshared.NewPage(brands, total, filters))
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	actor, err := rbac.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	brand, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "get brand", err)
		return
	}
	httpx.JSON(w, http.StatusOK, brand)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, false)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, true)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, update bool) {
	actor, err := rbac.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form BrandForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, httpx.BadBody(err))
		return
	}
	if err := httpx.ValidateStruct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !update {
		brand, err := h.service.Create(r.Context(), actor, form)
		if err != nil {
			h.fail(w, "create brand", err)
			return
		}
		httpx.JSON(w, http.StatusCreated, brand)
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	brand, err := h.service.Update(r.Context(), actor, id, form)
	if err != nil {
		h.fail(w, "update brand", err)
		return
	}
	httpx.JSON(w, http.StatusOK, brand)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := rbac.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, "delete brand", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err)
	}
	httpx.RespondError(w, err)
}

