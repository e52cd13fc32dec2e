package transaction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/filter"
	"github.com/MrJamesThe3rd/ledger/internal/http/respond"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/pay", h.pay)
	r.Post("/{id}/exclude", h.exclude)
	r.Post("/{id}/reactivate", h.reactivate)
}

type createTransactionRequest struct {
	Type        transaction.Type   `json:"type"`
	Description string             `json:"description"`
	Amount      decimal.Decimal    `json:"amount"`
	Status      transaction.Status `json:"status"`
	IssueDate   *date              `json:"issue_date"`
	DueDate     *date              `json:"due_date"`
	PaidAt      *date              `json:"paid_at"`
	Category    *string            `json:"category"`
	CostCenter  *string            `json:"cost_center"`
	Notes       *string            `json:"notes"`
	CityRef     *string            `json:"city_ref"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	if req.Status == "" {
		req.Status = transaction.StatusPending
	}

	tx, err := h.svc.Create(r.Context(), transaction.CreateParams{
		TenantID:    auth.TenantID(r.Context()),
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Status:      req.Status,
		IssueDate:   req.IssueDate.ptr(),
		DueDate:     req.DueDate.ptr(),
		PaidAt:      req.PaidAt.ptr(),
		Category:    req.Category,
		CostCenter:  req.CostCenter,
		Notes:       req.Notes,
		CityRef:     req.CityRef,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(tx))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filter.FromQuery(r.URL.Query(), auth.TenantID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	txs, err := transaction.Collect(h.svc.List(r.Context(), f))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(txs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Get(r.Context(), auth.TenantID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

// updateTransactionRequest is a partial patch. Dates are cleared with the clear_* flags
// and optional text fields with an empty string.
type updateTransactionRequest struct {
	Type           *transaction.Type   `json:"type"`
	Status         *transaction.Status `json:"status"`
	Description    *string             `json:"description"`
	Amount         *decimal.Decimal    `json:"amount"`
	IssueDate      *date               `json:"issue_date"`
	DueDate        *date               `json:"due_date"`
	ClearIssueDate bool                `json:"clear_issue_date"`
	ClearDueDate   bool                `json:"clear_due_date"`
	Category       *string             `json:"category"`
	CostCenter     *string             `json:"cost_center"`
	Notes          *string             `json:"notes"`
	CityRef        *string             `json:"city_ref"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateTransactionRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	tx, err := h.svc.Update(r.Context(), auth.TenantID(r.Context()), id, transaction.UpdateParams{
		Type:           req.Type,
		Status:         req.Status,
		Description:    req.Description,
		Amount:         req.Amount,
		IssueDate:      req.IssueDate.ptr(),
		DueDate:        req.DueDate.ptr(),
		ClearIssueDate: req.ClearIssueDate,
		ClearDueDate:   req.ClearDueDate,
		Category:       req.Category,
		CostCenter:     req.CostCenter,
		Notes:          req.Notes,
		CityRef:        req.CityRef,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.MarkPaid(r.Context(), auth.TenantID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

type excludeRequest struct {
	Reason transaction.Status `json:"reason"`
}

// exclude soft-deletes a transaction. The reason defaults to excluded.
func (h *Handler) exclude(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req := excludeRequest{Reason: transaction.StatusExcluded}
	if !decodeBody(w, r, &req, true) {
		return
	}

	tx, err := h.svc.Exclude(r.Context(), auth.TenantID(r.Context()), id, req.Reason)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

func (h *Handler) reactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	tx, err := h.svc.Reactivate(r.Context(), auth.TenantID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(tx))
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

// decodeBody reads a JSON request body. Values the domain rejects while decoding, such as
// malformed dates, are validation errors. Malformed JSON is a bad request.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(v)

	switch {
	case err == nil, allowEmpty && errors.Is(err, io.EOF):
		return true
	case errors.Is(err, transaction.ErrValidation):
		respond.Error(w, r, err)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}

	return false
}
