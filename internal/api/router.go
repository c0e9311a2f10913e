package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Cheertaboi/offer-engine/internal/api/handlers"
	"github.com/Cheertaboi/offer-engine/internal/api/middleware"
	"github.com/Cheertaboi/offer-engine/internal/service"
)

// NewRouter builds the HTTP router for the offer-service
func NewRouter(svc *service.OfferService) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	offerHandler := handlers.NewOfferHandler(svc)

	// Checkout endpoints
	r.Route("/offers", func(r chi.Router) {
		r.Post("/evaluate", offerHandler.EvaluateOffers)
		r.Post("/best", offerHandler.BestOffer)
		r.Post("/explain", offerHandler.ExplainOffers)
	})
	r.Post("/codes/evaluate", offerHandler.EvaluateCode)
	r.Post("/usages", offerHandler.RecordUsage)

	// Admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Post("/offers/{offerID}/codes", offerHandler.IssueCode)
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
