// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package api

import (
	"context"
	"time"

	"github.com/tomtom215/marquee/internal/recommend"
)

// Recommender is the engine surface the handlers use. *recommend.Engine
// satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) ([]recommend.Movie, error)
	Similar(ctx context.Context, imdbID string, k int) ([]recommend.SimilarMovie, error)
	Status() recommend.Status
	Ready() bool
}

// Reloader triggers an on-demand model reload. *services.ReloadService
// satisfies it.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Handler serves the HTTP endpoints.
type Handler struct {
	engine         Recommender
	reloader       Reloader
	requestTimeout time.Duration
	maxBodyBytes   int64
	startTime      time.Time
}

// HandlerConfig tunes request handling.
type HandlerConfig struct {
	// RequestTimeout bounds a single handler. 0 means 10s.
	RequestTimeout time.Duration

	// MaxBodyBytes caps request bodies. 0 means 1 MiB.
	MaxBodyBytes int64
}

// NewHandler creates a handler. reloader may be nil, in which case the
// admin reload endpoint answers 503.
func NewHandler(engine Recommender, reloader Reloader, cfg HandlerConfig) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		engine:         engine,
		reloader:       reloader,
		requestTimeout: cfg.RequestTimeout,
		maxBodyBytes:   cfg.MaxBodyBytes,
		startTime:      time.Now(),
	}
}
