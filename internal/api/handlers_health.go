// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/recommend/storage"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

// HealthLive handles GET /health/live. It answers 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready. It answers 503 until a model
// snapshot is loaded.
func (h *Handler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	if !h.engine.Ready() {
		respondError(w, http.StatusServiceUnavailable, msgModelNotLoaded)
		return
	}
	st := h.engine.Status()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ready",
		"model_version": st.Version,
		"movies":        st.NumMovies,
	})
}

// ModelStatus handles GET /model.
func (h *Handler) ModelStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Status())
}

// reloadResponse is the body of a successful POST /admin/reload.
type reloadResponse struct {
	Reloaded bool             `json:"reloaded"`
	Model    recommend.Status `json:"model"`
}

// AdminReload handles POST /admin/reload.
func (h *Handler) AdminReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		respondError(w, http.StatusServiceUnavailable, "Reload not available")
		return
	}

	changed, err := h.reloader.Reload(r.Context())
	switch {
	case errors.Is(err, services.ErrReloadThrottled):
		respondError(w, http.StatusTooManyRequests, "Reload throttled, try again later")
		return
	case errors.Is(err, storage.ErrModelNotFound):
		respondError(w, http.StatusNotFound, "No model artifact available")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Admin reload failed")
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(w, http.StatusOK, reloadResponse{Reloaded: changed, Model: h.engine.Status()})
}
