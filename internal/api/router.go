// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/marquee/internal/middleware"
)

// NewRouter wires every route and the global middleware stack.
func NewRouter(h *Handler, mw *Middleware) http.Handler {
	r := chi.NewRouter()

	// Order matters: metrics wrap the recoverer so panics are counted as 500s.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS())
	r.Use(SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Post("/recommend", h.Recommend)
		r.Get("/movies/{imdbID}/similar", h.SimilarMovies)
		r.Get("/model", h.ModelStatus)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.AdminRateLimit())
		r.Post("/reload", h.AdminReload)
	})

	return r
}
