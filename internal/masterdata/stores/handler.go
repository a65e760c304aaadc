package stores

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
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	stores, total, err := h.service.List(r.Context(), actor, filters, includeInactive)
	if err != nil {
		h.fail(w, "list stores", err)
		return
	}
	httpx.JSON(w, http.StatusOK, mdshared.NewPage(stores, total, filters))
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
	store, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "get store", err)
		return
	}
	httpx.JSON(w, http.StatusOK, store)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := rbac.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	store, err := h.service.Create(r.Context(), actor, form)
	if err != nil {
		h.fail(w, "create store", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, store)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	store, err := h.service.Update(r.Context(), actor, id, form)
	if err != nil {
		h.fail(w, "update store", err)
		return
	}
	httpx.JSON(w, http.StatusOK, store)
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
		h.fail(w, "delete store", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeForm(w http.ResponseWriter, r *http.Request) (StoreForm, bool) {
	var form StoreForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, httpx.BadBody(err))
		return form, false
	}
	if err := httpx.ValidateStruct(form); err != nil {
		httpx.RespondError(w, err)
		return form, false
	}
	return form, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", "error", err)
	}
	httpx.RespondError(w, err)
}
