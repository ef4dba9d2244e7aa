package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	creditHandler "github.com/sgi/credit/internal/http/credit"
	debtHandler "github.com/sgi/credit/internal/http/debt"
)

func New(creditsV1 *creditHandler.Handler, debtsV1 *debtHandler.Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/credits", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			creditsV1.Routes(r)
		})

		r.Route("/clients/{clientId}", func(r chi.Router) {
			r.Get("/credits", creditsV1.ListByClient)
			r.Get("/debts", debtsV1.ListByClient)
		})
	})

	return router
}
