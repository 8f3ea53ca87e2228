package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/ingestion"
	"github.com/fleetdesk/fuelrecon/internal/ledger"
	"github.com/fleetdesk/fuelrecon/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	batchRepo *repository.BatchRepo,
	txnRepo *repository.TransactionRepo,
	importSvc *ingestion.Service,
	ledgerSvc *ledger.Service,
	rates *currency.Service,
	log zerolog.Logger,
) http.Handler {
	h := &Handlers{
		batchRepo: batchRepo,
		txnRepo:   txnRepo,
		importSvc: importSvc,
		ledgerSvc: ledgerSvc,
		rates:     rates,
		log:       log,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rates/{currency}", h.GetRate)

		r.Route("/companies/{companyID}", func(r chi.Router) {
			// Imports.
			r.Post("/imports", h.CreateImport)
			r.Get("/imports", h.ListImports)
			r.Get("/imports/{batchID}", h.GetImport)
			r.Delete("/imports/{batchID}", h.DeleteImport)

			// Transactions.
			r.Get("/transactions", h.ListTransactions)
			r.Post("/transactions/match", h.MatchTransactions)
			r.Post("/transactions/ignore", h.IgnoreTransactions)
			r.Post("/transactions/expenses", h.CreateExpenses)
		})
	})

	return r
}
