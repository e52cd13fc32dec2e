package report

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/filter"
	"github.com/MrJamesThe3rd/ledger/internal/http/respond"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/stats", serve(h.svc.Stats))
	r.Get("/categories", serve(h.svc.ByCategory))
	r.Get("/cost-centers", serve(h.svc.ByCostCenter))
	r.Get("/cities", serve(h.svc.ByCity))
	r.Get("/cash-flow", serve(h.svc.CashFlow))
	r.Get("/dre", serve(h.svc.DRE))
}

// serve adapts a report computed over a filtered listing into a handler reading the
// filter from the query string.
func serve[T any](compute func(context.Context, transaction.ListFilter) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := filter.FromQuery(r.URL.Query(), auth.TenantID(r.Context()))
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		result, err := compute(r.Context(), f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, http.StatusOK, result)
	}
}
