// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/validation"
)

// RecommendRequest is the POST /recommend body.
type RecommendRequest struct {
	LikedMovies  []recommend.MovieDescriptor `json:"liked_movies" validate:"max=1000"`
	WatchHistory []recommend.MovieDescriptor `json:"watch_history" validate:"max=1000"`
	TopN         int                         `json:"top_n" validate:"min=0,max=100"`
}

// similarQuery is the validated input of GET /movies/{imdbID}/similar.
type similarQuery struct {
	IMDbID string `json:"imdb_id" validate:"required,imdb_id"`
	K      int    `json:"k" validate:"min=0,max=100"`
}

// Recommend handles POST /recommend.
//
// An empty body, null or {} is rejected as an empty request. A payload with
// empty lists is valid and yields []. Genre entries that are neither a
// number nor a string carry no genre and are ignored.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Unable to read request body")
		return
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		respondError(w, http.StatusBadRequest, msgEmptyRequest)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON: request body must be an object")
		return
	}
	if len(fields) == 0 {
		respondError(w, http.StatusBadRequest, msgEmptyRequest)
		return
	}

	var req RecommendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	movies, err := h.engine.Recommend(ctx, recommend.Request{
		LikedMovies:  req.LikedMovies,
		WatchHistory: req.WatchHistory,
		TopN:         req.TopN,
	})
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Recommendation failed")
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	if movies == nil {
		movies = []recommend.Movie{}
	}

	respondJSON(w, http.StatusOK, movies)
}

// SimilarMovies handles GET /movies/{imdbID}/similar.
func (h *Handler) SimilarMovies(w http.ResponseWriter, r *http.Request) {
	q := similarQuery{IMDbID: chi.URLParam(r, "imdbID")}
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
		q.K = k
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	similar, err := h.engine.Similar(ctx, q.IMDbID, q.K)
	switch {
	case errors.Is(err, recommend.ErrNoModel):
		respondError(w, http.StatusServiceUnavailable, msgModelNotLoaded)
		return
	case errors.Is(err, recommend.ErrUnknownMovie):
		respondError(w, http.StatusNotFound, "Movie not found")
		return
	case err != nil:
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("imdb_id", sanitizeLogValue(q.IMDbID)).
			Msg("Similar movie lookup failed")
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(w, http.StatusOK, similar)
}
