// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend/storage"
)

// ErrReloadThrottled is returned by Reload when the minimum spacing between
// reloads has not elapsed.
var ErrReloadThrottled = errors.New("model reload throttled")

// Reload triggers, used as the log "reason".
const (
	ReasonStartup = "startup"
	ReasonPoll    = "poll"
	ReasonEvent   = "event"
	ReasonAdmin   = "admin"
)

// ModelLoader swaps in the newest stored model. recommend.Engine satisfies it.
type ModelLoader interface {
	Load(ctx context.Context) (bool, error)
}

// EventSource delivers model-built notifications. events.Bus satisfies it.
type EventSource interface {
	Subscribe(ctx context.Context) (<-chan events.ModelBuilt, error)
}

// ReloadServiceConfig tunes when reloads happen.
type ReloadServiceConfig struct {
	// PollInterval checks the store for a newer artifact. 0 disables polling.
	PollInterval time.Duration

	// MinInterval is the minimum spacing between two reloads.
	MinInterval time.Duration
}

// ReloadService keeps the serving snapshot current. It loads once on start,
// then on every model event, poll tick or admin request. All triggers share
// one rate limiter and loads never overlap.
type ReloadService struct {
	loader  ModelLoader
	source  EventSource
	config  ReloadServiceConfig
	limiter *rate.Limiter
	logger  zerolog.Logger

	mu sync.Mutex
}

// NewReloadService creates the service. source may be nil.
func NewReloadService(loader ModelLoader, source EventSource, cfg ReloadServiceConfig) *ReloadService {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &ReloadService{
		loader:  loader,
		source:  source,
		config:  cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.WithComponent("reload"),
	}
}

// Serve implements suture.Service.
func (s *ReloadService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("poll_interval", s.config.PollInterval).
		Dur("min_interval", s.config.MinInterval).
		Bool("events", s.source != nil).
		Msg("Model reload service starting")

	s.reload(ctx, ReasonStartup)

	var modelEvents <-chan events.ModelBuilt
	if s.source != nil {
		ch, err := s.source.Subscribe(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Model events unavailable, relying on polling")
		} else {
			modelEvents = ch
		}
	}

	var tick <-chan time.Time
	if s.config.PollInterval > 0 {
		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Model reload service stopping")
			return ctx.Err()

		case <-tick:
			if !s.limiter.Allow() {
				metrics.RecordModelReload(metrics.ReloadThrottled, 0)
				continue
			}
			s.reload(ctx, ReasonPoll)

		case ev, ok := <-modelEvents:
			if !ok {
				modelEvents = nil
				continue
			}
			s.logger.Info().
				Str("model", ev.Name).
				Int("version", ev.Version).
				Msg("Received model event")
			// Bursts coalesce: wait for the next slot instead of dropping.
			if err := s.limiter.Wait(ctx); err != nil {
				return ctx.Err()
			}
			s.reload(ctx, ReasonEvent)
		}
	}
}

// Reload runs an on-demand reload. It fails fast with ErrReloadThrottled
// when called more often than the minimum interval allows.
func (s *ReloadService) Reload(ctx context.Context) (bool, error) {
	if !s.limiter.Allow() {
		metrics.RecordModelReload(metrics.ReloadThrottled, 0)
		return false, ErrReloadThrottled
	}
	return s.load(ctx, ReasonAdmin)
}

func (s *ReloadService) reload(ctx context.Context, reason string) {
	_, _ = s.load(ctx, reason) //nolint:errcheck // logged in load
}

func (s *ReloadService) load(ctx context.Context, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	changed, err := s.loader.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrModelNotFound):
		s.logger.Warn().Str("reason", reason).Msg("No model artifact available yet")
	case err != nil:
		s.logger.Error().Err(err).Str("reason", reason).Msg("Model reload failed, keeping current snapshot")
	case changed:
		s.logger.Info().Str("reason", reason).Dur("duration", time.Since(start)).Msg("Model reloaded")
	default:
		s.logger.Debug().Str("reason", reason).Msg("Model unchanged")
	}
	return changed, err
}

func (s *ReloadService) String() string {
	return "model-reload"
}
