package category

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/category"
	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/respond"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

// Handler serves the category and cost center registries.
type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CategoryRoutes(r chi.Router) {
	r.Post("/", h.createCategory)
	r.Get("/", h.listCategories)
	r.Delete("/{id}", h.deleteCategory)
}

func (h *Handler) CostCenterRoutes(r chi.Router) {
	r.Post("/", h.createCostCenter)
	r.Get("/", h.listCostCenters)
	r.Delete("/{id}", h.deleteCostCenter)
}

type categoryResponse struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Type      transaction.Type `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
}

type costCenterResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type createRequest struct {
	Name string           `json:"name"`
	Type transaction.Type `json:"type"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.AddCategory(r.Context(), auth.TenantID(r.Context()), req.Name, req.Type)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, categoryResponse{ID: c.ID, Name: c.Name, Type: c.Type, CreatedAt: c.CreatedAt})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	typ, err := transaction.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	list, err := h.svc.ListCategories(r.Context(), auth.TenantID(r.Context()), typ)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]categoryResponse, len(list))
	for i, c := range list {
		resp[i] = categoryResponse{ID: c.ID, Name: c.Name, Type: c.Type, CreatedAt: c.CreatedAt}
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveCategory(r.Context(), auth.TenantID(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createCostCenter(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.svc.AddCostCenter(r.Context(), auth.TenantID(r.Context()), req.Name)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, costCenterResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt})
}

func (h *Handler) listCostCenters(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCostCenters(r.Context(), auth.TenantID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]costCenterResponse, len(list))
	for i, c := range list {
		resp[i] = costCenterResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteCostCenter(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemoveCostCenter(r.Context(), auth.TenantID(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
