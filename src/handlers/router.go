// src/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/username/dolarhistorico/src/utils"
)

// NewRouter wires the API routes behind panic recovery, request logging and rate limiting.
func NewRouter(base *slog.Logger, limiter *rate.Limiter, rates *RatesHandler, customers *CustomerHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware(base))
	r.Use(RateLimitMiddleware(limiter))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSON(w, map[string]string{"message": "Dólar Histórico backend is running"}, http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/rates/status", rates.HandleStatus)
		r.Get("/rates/{date}", rates.HandleGetDate)
		r.Post("/rates/update", rates.HandleUpdateToToday)
		r.Post("/rates/range", rates.HandleUpdateRange)
		r.Post("/rates/date", rates.HandleUpdateDate)

		r.Post("/customers/import", customers.HandleImport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.SendJSONError(w, "Recurso no encontrado", http.StatusNotFound)
	})

	return r
}
