package matching

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/respond"
	"github.com/MrJamesThe3rd/ledger/internal/matching"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.learn)
	r.Get("/suggest", h.suggest)
}

type learnRequest struct {
	Type     transaction.Type `json:"type"`
	Pattern  string           `json:"pattern"`
	Category string           `json:"category"`
}

type ruleResponse struct {
	ID        uuid.UUID        `json:"id"`
	Type      transaction.Type `json:"type"`
	Pattern   string           `json:"pattern"`
	Category  string           `json:"category"`
	CreatedAt time.Time        `json:"created_at"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	rule, err := h.svc.Learn(r.Context(), auth.TenantID(r.Context()), req.Type, req.Pattern, req.Category)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ruleResponse{
		ID:        rule.ID,
		Type:      rule.Type,
		Pattern:   rule.Pattern,
		Category:  rule.Category,
		CreatedAt: rule.CreatedAt,
	})
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	typ, err := transaction.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if typ == nil {
		http.Error(w, "type is required", http.StatusBadRequest)
		return
	}

	category, err := h.svc.Suggest(r.Context(), auth.TenantID(r.Context()), *typ, r.URL.Query().Get("description"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"category": category})
}
