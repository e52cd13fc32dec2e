package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	"github.com/MrJamesThe3rd/ledger/internal/http/category"
	"github.com/MrJamesThe3rd/ledger/internal/http/importcsv"
	"github.com/MrJamesThe3rd/ledger/internal/http/matching"
	"github.com/MrJamesThe3rd/ledger/internal/http/report"
	"github.com/MrJamesThe3rd/ledger/internal/http/transaction"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Timeout        time.Duration
}

func New(
	opts Options,
	transactionsV1 *transaction.Handler,
	categoriesV1 *category.Handler,
	reportsV1 *report.Handler,
	importV1 *importcsv.Handler,
	matchingV1 *matching.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(opts.JWTSecret))

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			categoriesV1.CategoryRoutes(r)
		})

		r.Route("/cost-centers", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			categoriesV1.CostCenterRoutes(r)
		})

		r.Route("/category-rules", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			matchingV1.Routes(r)
		})

		r.Route("/reports", reportsV1.Routes)
		r.Route("/import", importV1.Routes)
	})

	return router
}
