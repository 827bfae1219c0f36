package ticket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/gateway"
	"github.com/noah-isme/backend-pos/internal/pos"
)

// Catalog resolves products that are added to the ticket.
type Catalog interface {
	Product(ctx context.Context, oid string) (pos.Product, error)
}

// Handler wires the ticket service to HTTP.
type Handler struct {
	Svc      *Service
	Catalog  Catalog
	Validate *validator.Validate
}

// Routes mounts the ticket endpoints on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ticket", h.Get)
	r.Delete("/ticket", h.Reset)
	r.Get("/ticket/totals", h.Totals)
	r.Post("/ticket/items", h.AddItem)
	r.Patch("/ticket/items/{itemID}", h.UpdateItem)
	r.Delete("/ticket/items/{itemID}", h.RemoveItem)
	r.Post("/orders", h.CreateOrder)
}

type addItemRequest struct {
	ProductOID string `json:"productOid" validate:"required"`
	Quantity   string `json:"quantity" validate:"required"`
	Remark     string `json:"remark"`
}

type updateItemRequest struct {
	Quantity string `json:"quantity" validate:"required"`
}

// Get returns the current snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Snapshot()})
}

// Totals returns only the totals of the current snapshot.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Snapshot().Totals})
}

// AddItem resolves a product and appends it to the ticket.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil || h.Catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	var payload addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing required fields", err.Error())
		return
	}
	quantity, err := common.ParseDecimal(payload.Quantity)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid quantity", nil)
		return
	}
	product, err := h.Catalog.Product(r.Context(), payload.ProductOID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "product lookup failed", nil)
		return
	}
	snap, err := h.Svc.AddItem(r.Context(), product, quantity, payload.Remark)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": snap})
}

// UpdateItem changes the quantity of one ticket line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid item id", nil)
		return
	}
	var payload updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "missing required fields", err.Error())
		return
	}
	quantity, err := common.ParseDecimal(payload.Quantity)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid quantity", nil)
		return
	}
	snap, err := h.Svc.SetQuantity(r.Context(), id, quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// RemoveItem deletes one ticket line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid item id", nil)
		return
	}
	snap, err := h.Svc.RemoveItem(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": snap})
}

// Reset clears the ticket.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.Svc.Reset(r.Context())})
}

// CreateOrder submits the current ticket as an order document and clears the
// ticket on success.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ticket service not configured", nil)
		return
	}
	order, err := h.Svc.CreateOrder(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Svc.Reset(r.Context())
	common.JSON(w, http.StatusCreated, map[string]any{"data": order})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "ticket line not found", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, ErrEmptyTicket):
		common.JSONError(w, http.StatusConflict, "EMPTY_TICKET", "ticket has no lines", nil)
	case errors.Is(err, ErrNoDocuments):
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "document collaborator not configured", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", "order submission failed", nil)
	}
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}
