package inventory

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/brandstock/internal/brandscope"
	"github.com/odyssey-erp/brandstock/internal/platform/httpx"
	"github.com/odyssey-erp/brandstock/internal/rbac"
	"github.com/odyssey-erp/brandstock/internal/shared"
)

const maxPerPage = 200

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers inventory routes. Movement creation is open to every
// role; the ledger checks the actor's brand itself.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", h.listRecords)
		r.Get("/low-stock", h.lowStock)
		r.With(h.rbac.Require(brandscope.ActionCreate)).Post("/", h.createRecord)
		r.Get("/{id}", h.getRecord)
		r.With(h.rbac.Require(brandscope.ActionUpdate)).Patch("/{id}", h.updateRecord)
		r.With(h.rbac.Require(brandscope.ActionDelete)).Delete("/{id}", h.deleteRecord)
	})
	r.Route("/movements", func(r chi.Router) {
		r.Get("/", h.listMovements)
		r.Post("/", h.createMovement)
		r.Get("/history", h.history)
		r.Get("/{id}", h.getMovement)
		r.Put("/{id}", h.updateMovement)
		r.Patch("/{id}", h.updateMovement)
		r.Delete("/{id}", h.deleteMovement)
	})
}

type movementRequest struct {
	MovementType            string     `json:"movement_type" validate:"required"`
	Quantity                int64      `json:"quantity"`
	ProductStore            uuid.UUID  `json:"product_store" validate:"required"`
	DestinationProductStore *uuid.UUID `json:"destination_product_store"`
	ReferenceNumber         string     `json:"reference_number" validate:"max=100"`
	Notes                   string     `json:"notes" validate:"max=2000"`
}

type createRecordRequest struct {
	Product           uuid.UUID `json:"product" validate:"required"`
	Store             uuid.UUID `json:"store" validate:"required"`
	QuantityOnHand    int64     `json:"quantity_on_hand"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	MinimumStockLevel int64     `json:"minimum_stock_level"`
}

type updateRecordRequest struct {
	QuantityOnHand    *int64 `json:"quantity_on_hand"`
	ReservedQuantity  *int64 `json:"reserved_quantity"`
	MinimumStockLevel *int64 `json:"minimum_stock_level"`
}

func (h *Handler) createMovement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.BadBody(err))
		return
	}
	if err := httpx.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cmd := MovementCommand{
		Kind:            MovementKind(strings.ToUpper(strings.TrimSpace(req.MovementType))),
		Quantity:        req.Quantity,
		SourceRecordID:  req.ProductStore,
		ReferenceNumber: strings.TrimSpace(req.ReferenceNumber),
		Notes:           req.Notes,
		IdempotencyKey:  strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	}
	if req.DestinationProductStore != nil {
		cmd.DestinationRecordID = uuid.NullUUID{UUID: *req.DestinationProductStore, Valid: true}
	}
	result, err := h.service.PostMovement(r.Context(), actor, cmd)
	if err != nil {
		h.fail(w, "post movement", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	recordID, err := httpx.QueryUUID(r, "product_store")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.PageFromQuery(r.URL.Query(), maxPerPage)
	filter := MovementFilter{
		RecordID: recordID,
		Kind:     MovementKind(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("movement_type")))),
		Limit:    page.PerPage,
		Offset:   page.Offset(),
	}
	movements, total, err := h.service.ListMovements(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, "list movements", err)
		return
	}
	writePage(w, movements, page.WithTotal(total))
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	itemID, err := httpx.QueryUUID(r, "product_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	locationID, err := httpx.QueryUUID(r, "store_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.PageFromQuery(r.URL.Query(), maxPerPage)
	movements, total, err := h.service.History(r.Context(), actor, HistoryFilter{
		ItemID:     itemID,
		LocationID: locationID,
		Limit:      page.PerPage,
		Offset:     page.Offset(),
	})
	if err != nil {
		h.fail(w, "movement history", err)
		return
	}
	writePage(w, movements, page.WithTotal(total))
}

func (h *Handler) getMovement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.GetMovement(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "get movement", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) updateMovement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Allow", "GET, DELETE")
	httpx.RespondError(w, h.service.UpdateMovement(r.Context(), actor, id))
}

func (h *Handler) deleteMovement(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteMovement(r.Context(), actor, id); err != nil {
		h.fail(w, "delete movement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	itemID, err := httpx.QueryUUID(r, "product_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	locationID, err := httpx.QueryUUID(r, "store_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.PageFromQuery(r.URL.Query(), maxPerPage)
	records, total, err := h.service.ListRecords(r.Context(), actor, RecordFilter{
		ItemID:     itemID,
		LocationID: locationID,
		Limit:      page.PerPage,
		Offset:     page.Offset(),
	})
	if err != nil {
		h.fail(w, "list records", err)
		return
	}
	writePage(w, records, page.WithTotal(total))
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	page := shared.PageFromQuery(r.URL.Query(), maxPerPage)
	result, err := h.service.LowStock(r.Context(), actor, page.PerPage, page.Offset())
	if err != nil {
		h.fail(w, "low stock", err)
		return
	}
	writePage(w, result.Records, page.WithTotal(result.Total))
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req createRecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.BadBody(err))
		return
	}
	if err := httpx.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.CreateRecord(r.Context(), actor, RecordInput{
		ItemID:       req.Product,
		LocationID:   req.Store,
		OnHand:       req.QuantityOnHand,
		Reserved:     req.ReservedQuantity,
		MinimumLevel: req.MinimumStockLevel,
	})
	if err != nil {
		h.fail(w, "create record", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.GetRecord(r.Context(), actor, id)
	if err != nil {
		h.fail(w, "get record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.BadBody(err))
		return
	}
	view, err := h.service.UpdateRecord(r.Context(), actor, id, RecordPatch{
		OnHand:       req.QuantityOnHand,
		Reserved:     req.ReservedQuantity,
		MinimumLevel: req.MinimumStockLevel,
	})
	if err != nil {
		h.fail(w, "update record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteRecord(r.Context(), actor, id); err != nil {
		h.fail(w, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (brandscope.Actor, bool) {
	actor, err := rbac.ActorFrom(r)
	if err != nil {
		httpx.RespondError(w, err)
		return brandscope.Actor{}, false
	}
	return actor, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error("inventory "+op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func writePage[T any](w http.ResponseWriter, data []T, page shared.Pagination) {
	httpx.JSON(w, http.StatusOK, httpx.Page[T]{
		Data:       data,
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
	})
}
