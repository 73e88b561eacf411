package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"predio-server/src/bank"
	"predio-server/src/handlers"
	"predio-server/src/middleware"
)

func NewRouter(svc *bank.Service, jwtSecret string, readOnly bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.ReadOnlyMiddleware(readOnly))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// The aggregator redirects the user's browser here; no bearer token.
		r.Get("/bank/callback", handlers.OAuthCallback(svc))

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(jwtSecret)).Group(func(r chi.Router) {
			r.Post("/buildings/{building_id}/bank/connect", handlers.InitiateBankConnection(svc))
			r.Get("/buildings/{building_id}/bank/connection", handlers.GetConnectionStatus(svc))
			r.Delete("/buildings/{building_id}/bank/connection", handlers.DisconnectBank(svc))

			r.Post("/buildings/{building_id}/bank/accounts/sync", handlers.SyncAccounts(svc))
			r.Post("/buildings/{building_id}/bank/transactions/sync", handlers.SyncTransactions(svc))

			r.Get("/buildings/{building_id}/bank/transactions/unmatched", handlers.GetUnmatchedTransactions(svc))
			r.Post("/buildings/{building_id}/bank/transactions/match", handlers.MatchTransactionsByIban(svc))
			r.Post("/bank/transactions/{transaction_id}/match", handlers.ManuallyMatchTransaction(svc))
			r.Post("/bank/transactions/{transaction_id}/ignore", handlers.IgnoreTransaction(svc))

			r.Post("/buildings/{building_id}/bank/resident-ibans", handlers.AddResidentIban(svc))
			r.Get("/buildings/{building_id}/bank/resident-ibans", handlers.GetResidentIbans(svc))
			r.Delete("/buildings/{building_id}/bank/resident-ibans/{apartment_id}/{iban}", handlers.RemoveResidentIban(svc))
		})
	})

	return r
}
