package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/pawfund/internal/http/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/http/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/http/webhook"
)

func New(
	campaignsV1 *campaign.Handler,
	checkoutV1 *checkout.Handler,
	payments *webhook.Handler,
	authenticate func(http.Handler) http.Handler,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Provider callbacks are server-to-server and authenticated by signature,
	// so they sit outside CORS and the donor auth middleware.
	router.Route("/payments", payments.Routes)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		r.Route("/campaigns", func(r chi.Router) {
			campaignsV1.Routes(r)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.AllowContentType("application/json"))
				checkoutV1.Routes(r)
			})
		})
	})

	return router
}
