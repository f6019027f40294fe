package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivam-2310/ShortAI/internal/ratelimit"
)

// NewRouter wires all routes. Rate limiting applies only to the redirect
// paths; the API surface is unrestricted.
func NewRouter(links *LinkHandler, redirect *RedirectHandler, limiter *ratelimit.Limiter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)

	r.Route("/api/urls", func(r chi.Router) {
		r.Post("/", links.Create)
		r.Post("/bulk", links.CreateBulk)
		r.Post("/bulk/csv", links.CreateBulkCSV)
		r.Get("/", links.List)
		r.Get("/{key}/stats", links.Stats)
		r.Get("/{key}/analytics", links.Analytics)
		r.Get("/{key}/qrcode", links.QRCode)
		r.Get("/{key}/preview", links.Preview)
		r.Get("/{key}/protected", links.Protected)
	})

	r.Route("/api/ai", func(r chi.Router) {
		r.Post("/suggest-aliases", links.SuggestAliases)
		r.Post("/check-safety", links.CheckSafety)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(limiter))
		r.Get(`/{key:[A-Za-z0-9_-]{1,50}}`, redirect.Redirect)
		r.Post(`/{key:[A-Za-z0-9_-]{1,50}}/unlock`, redirect.Unlock)
	})

	return r
}
