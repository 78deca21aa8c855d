// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/marquee/internal/cache"
	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend/storage"
)

var (
	// ErrNoModel is returned when no snapshot has been loaded yet.
	ErrNoModel = errors.New("no model loaded")

	// ErrUnknownMovie is returned by Similar for an IMDb id not in the corpus.
	ErrUnknownMovie = errors.New("movie not in catalog")
)

const breakerName = "model-store"

// EngineConfig holds query-time settings.
type EngineConfig struct {
	// ModelName is the artifact name looked up in the store.
	ModelName string

	DefaultTopN int
	MaxTopN     int

	MinRating float64
	MinYear   int

	LoadTimeout time.Duration

	SimilarCacheSize int
	SimilarCacheTTL  time.Duration
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ModelName:        "movie_recommender",
		DefaultTopN:      10,
		MaxTopN:          100,
		MinRating:        7.5,
		MinYear:          2015,
		LoadTimeout:      2 * time.Minute,
		SimilarCacheSize: 1000,
		SimilarCacheTTL:  10 * time.Minute,
	}
}

// Snapshot is an immutable, loaded model plus its lookup tables.
type Snapshot struct {
	Model    *Model
	Version  int
	LoadedAt time.Time

	byIMDb     map[string]int
	byRating   []int
	thresholds catalog.Thresholds
}

func newSnapshot(m *Model, version int, cfg *EngineConfig) *Snapshot {
	s := &Snapshot{
		Model:      m,
		Version:    version,
		LoadedAt:   time.Now().UTC(),
		byIMDb:     make(map[string]int, len(m.Corpus)),
		byRating:   make([]int, len(m.Corpus)),
		thresholds: m.Thresholds(cfg.MinRating, cfg.MinYear),
	}
	for i := range m.Corpus {
		s.byRating[i] = i
		id := m.Corpus[i].IMDbID
		if id == "" {
			continue
		}
		if _, dup := s.byIMDb[id]; !dup {
			s.byIMDb[id] = i
		}
	}
	sort.SliceStable(s.byRating, func(a, b int) bool {
		return m.Corpus[s.byRating[a]].Rating > m.Corpus[s.byRating[b]].Rating
	})
	return s
}

// Status describes the active snapshot.
type Status struct {
	Loaded         bool      `json:"loaded"`
	Name           string    `json:"name"`
	Version        int       `json:"version,omitempty"`
	NumMovies      int       `json:"num_movies,omitempty"`
	TopK           int       `json:"top_k,omitempty"`
	VocabularySize int       `json:"vocabulary_size,omitempty"`
	Backend        string    `json:"backend,omitempty"`
	Variant        string    `json:"variant,omitempty"`
	BuiltAt        time.Time `json:"built_at"`
	LoadedAt       time.Time `json:"loaded_at"`
	BreakerState   string    `json:"breaker_state"`
}

// Engine serves recommendations from the active snapshot.
type Engine struct {
	cfg      EngineConfig
	store    storage.Store
	snapshot atomic.Pointer[Snapshot]
	breaker  *gobreaker.CircuitBreaker[*Snapshot]
	similar  *cache.LRU[[]SimilarMovie]
	logger   zerolog.Logger
}

// NewEngine creates an engine reading artifacts from store. The engine holds
// no snapshot until Load or SetModel succeeds.
func NewEngine(store storage.Store, cfg EngineConfig) *Engine {
	defaults := DefaultEngineConfig()
	if cfg.ModelName == "" {
		cfg.ModelName = defaults.ModelName
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = defaults.DefaultTopN
	}
	if cfg.MaxTopN <= 0 {
		cfg.MaxTopN = defaults.MaxTopN
	}
	if cfg.DefaultTopN > cfg.MaxTopN {
		cfg.DefaultTopN = cfg.MaxTopN
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaults.LoadTimeout
	}

	e := &Engine{
		cfg:     cfg,
		store:   store,
		similar: cache.NewLRU[[]SimilarMovie](cfg.SimilarCacheSize, cfg.SimilarCacheTTL),
		logger:  logging.WithComponent("recommend"),
	}

	metrics.SetCircuitBreakerState(breakerName, gobreaker.StateClosed.String())
	e.breaker = gobreaker.NewCircuitBreaker[*Snapshot](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, to.String())
			e.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Model store circuit breaker state changed")
		},
		// A pruned version is a race with the trainer, not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, storage.ErrModelNotFound)
		},
	})

	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Snapshot returns the active snapshot or nil.
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// Ready reports whether a snapshot is loaded.
func (e *Engine) Ready() bool {
	return e.snapshot.Load() != nil
}

type refresher interface {
	Refresh() error
}

// Load swaps in the latest stored artifact if it is newer than the active
// snapshot. It reports whether the snapshot changed. On failure the previous
// snapshot stays active.
func (e *Engine) Load(ctx context.Context) (bool, error) {
	if e.store == nil {
		metrics.RecordModelReload(metrics.ReloadNotFound, 0)
		return false, fmt.Errorf("load model: %w", storage.ErrModelNotFound)
	}

	if r, ok := e.store.(refresher); ok {
		if err := r.Refresh(); err != nil {
			metrics.RecordModelReload(metrics.ReloadFailed, 0)
			return false, fmt.Errorf("refresh model store: %w", err)
		}
	}

	latest, ok := e.store.LatestVersion(e.cfg.ModelName)
	if !ok {
		metrics.RecordModelReload(metrics.ReloadNotFound, 0)
		return false, fmt.Errorf("load model %q: %w", e.cfg.ModelName, storage.ErrModelNotFound)
	}
	if cur := e.snapshot.Load(); cur != nil && cur.Version == latest {
		metrics.RecordModelReload(metrics.ReloadUnchanged, 0)
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.LoadTimeout)
	defer cancel()

	start := time.Now()
	snap, err := e.breaker.Execute(func() (*Snapshot, error) {
		return e.loadVersion(ctx, latest)
	})
	if err != nil {
		result := metrics.ReloadFailed
		if errors.Is(err, storage.ErrModelNotFound) {
			result = metrics.ReloadNotFound
		}
		metrics.RecordModelReload(result, time.Since(start))
		return false, err
	}
	metrics.RecordModelReload(metrics.ReloadLoaded, time.Since(start))

	e.swap(snap)
	return true, nil
}

func (e *Engine) loadVersion(ctx context.Context, version int) (*Snapshot, error) {
	var m Model
	meta, err := e.store.Load(ctx, e.cfg.ModelName, version, &m)
	if err != nil {
		return nil, fmt.Errorf("load model %q v%d: %w", e.cfg.ModelName, version, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load model %q v%d: %w", e.cfg.ModelName, meta.Version, err)
	}
	return newSnapshot(&m, meta.Version, &e.cfg), nil
}

// SetModel validates m and makes it the active snapshot under version.
func (e *Engine) SetModel(m *Model, version int) error {
	if m == nil {
		return fmt.Errorf("set model: %w", ErrNoModel)
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("set model: %w", err)
	}
	e.swap(newSnapshot(m, version, &e.cfg))
	return nil
}

func (e *Engine) swap(snap *Snapshot) {
	prev := e.snapshot.Swap(snap)
	e.similar.Clear()
	metrics.SetActiveModel(snap.Version, len(snap.Model.Corpus), snap.LoadedAt)

	ev := e.logger.Info().
		Int("version", snap.Version).
		Int("movies", len(snap.Model.Corpus)).
		Str("backend", snap.Model.Metadata.Backend)
	if prev != nil {
		ev = ev.Int("previous_version", prev.Version)
	}
	ev.Msg("Activated model snapshot")
}

// Status reports the active snapshot.
func (e *Engine) Status() Status {
	st := Status{
		Name:         e.cfg.ModelName,
		BreakerState: e.breaker.State().String(),
	}
	snap := e.snapshot.Load()
	if snap == nil {
		return st
	}
	md := snap.Model.Metadata
	st.Loaded = true
	st.Version = snap.Version
	st.NumMovies = len(snap.Model.Corpus)
	st.TopK = md.TopK
	st.VocabularySize = md.VocabularySize
	st.Backend = md.Backend
	st.Variant = md.Variant
	st.BuiltAt = md.BuiltAt
	st.LoadedAt = snap.LoadedAt
	return st
}

// TopN resolves a requested result size against the configured default and
// cap.
func (e *Engine) TopN(requested int) int {
	if requested <= 0 {
		return e.cfg.DefaultTopN
	}
	if requested > e.cfg.MaxTopN {
		return e.cfg.MaxTopN
	}
	return requested
}

// Recommend ranks the catalog for the user's genre interests. Movies in an
// interest genre that pass the rating and recency thresholds come first,
// newest first. When none qualify the whole catalog is returned by rating.
//
// A missing model is not an error to the caller: the result is empty and the
// condition is logged.
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Movie, error) {
	start := time.Now()
	log := logging.Ctx(ctx).With().Str("component", "recommend").Logger()

	if !req.HasSignal() {
		metrics.RecordRecommendation(metrics.PathEmpty, 0, time.Since(start))
		return []Movie{}, nil
	}

	snap := e.snapshot.Load()
	if snap == nil {
		log.Warn().Err(ErrNoModel).Msg("Returning empty recommendations")
		metrics.RecordRecommendation(metrics.PathNoModel, 0, time.Since(start))
		return []Movie{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	interests := Interests(&req)
	corpus := snap.Model.Corpus

	matches := make([]int, 0, 64)
	for i := range corpus {
		if snap.thresholds.Passes(&corpus[i]) && interests.Matches(&corpus[i]) {
			matches = append(matches, i)
		}
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return corpus[matches[a]].ReleaseDate.After(corpus[matches[b]].ReleaseDate)
	})

	path := metrics.PathFiltered
	order := matches
	if len(matches) == 0 {
		path = metrics.PathFallback
		order = snap.byRating
	}

	n := min(e.TopN(req.TopN), len(order))
	out := make([]Movie, n)
	for i := 0; i < n; i++ {
		out[i] = project(&corpus[order[i]])
	}

	metrics.RecordRecommendation(path, n, time.Since(start))
	log.Debug().
		Strs("genres", interests.Labels()).
		Int("matches", len(matches)).
		Str("path", path).
		Int("results", n).
		Int("model_version", snap.Version).
		Msg("Ranked recommendations")

	return out, nil
}

// Similar returns up to k precomputed neighbors of the movie with imdbID.
// k <= 0 uses the default result size.
func (e *Engine) Similar(ctx context.Context, imdbID string, k int) ([]SimilarMovie, error) {
	snap := e.snapshot.Load()
	if snap == nil {
		return nil, ErrNoModel
	}
	idx, ok := snap.byIMDb[imdbID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMovie, imdbID)
	}
	k = e.TopN(k)

	key := fmt.Sprintf("%d:%s:%d", snap.Version, imdbID, k)
	if cached, hit := e.similar.Get(key); hit {
		metrics.RecordSimilarLookup(true)
		return cached, nil
	}
	metrics.RecordSimilarLookup(false)

	neighbors := snap.Model.Neighbors[idx]
	n := min(k, len(neighbors))
	out := make([]SimilarMovie, n)
	for i := 0; i < n; i++ {
		rec := &snap.Model.Corpus[neighbors[i].Index]
		out[i] = SimilarMovie{
			IMDbID:      rec.IMDbID,
			Title:       rec.Title,
			Genres:      catalog.JoinGenres(rec.Genres),
			ReleaseYear: rec.ReleaseYear,
			Score:       neighbors[i].Score,
		}
	}

	e.similar.Add(key, out)
	logging.Ctx(ctx).Debug().
		Str("imdb_id", imdbID).
		Int("results", n).
		Msg("Resolved similar movies")
	return out, nil
}
