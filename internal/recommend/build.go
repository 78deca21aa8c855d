// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend/content"
	"github.com/tomtom215/marquee/internal/recommend/similarity"
	"github.com/tomtom215/marquee/internal/recommend/tfidf"
)

// Build stage names reported to metrics.
const (
	StageContent = "content"
	StageTFIDF   = "tfidf"
	StageIndex   = "index"
)

// BuildConfig configures a Builder.
type BuildConfig struct {
	TopK        int
	Backend     string
	Variant     catalog.Variant
	GenreWeight int
	Index       similarity.Options

	// SourceChecksum is copied into the model metadata.
	SourceChecksum string
}

// Builder runs the offline pipeline: content strings, TF-IDF vectors, then
// neighbor lists.
type Builder struct {
	cfg    BuildConfig
	index  similarity.Index
	logger zerolog.Logger
	now    func() time.Time
}

// NewBuilder validates cfg and resolves the similarity backend.
func NewBuilder(cfg BuildConfig) (*Builder, error) {
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d", cfg.TopK)
	}
	if cfg.Variant == "" {
		cfg.Variant = catalog.VariantFull
	}
	if cfg.GenreWeight <= 0 {
		cfg.GenreWeight = content.DefaultGenreWeight
	}
	idx, err := similarity.New(cfg.Backend, cfg.Index)
	if err != nil {
		return nil, err
	}
	cfg.Backend = idx.Name()

	return &Builder{
		cfg:    cfg,
		index:  idx,
		logger: logging.WithComponent("build"),
		now:    time.Now,
	}, nil
}

// Build produces a Model over records. Records must already be in corpus
// order; their Index fields are reassigned to their positions.
func (b *Builder) Build(ctx context.Context, records []catalog.MovieRecord) (*Model, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("build model: %w", tfidf.ErrEmptyCorpus)
	}

	corpus := make([]catalog.MovieRecord, len(records))
	copy(corpus, records)
	catalog.Reindex(corpus)

	start := time.Now()
	docs := content.NewBuilder(b.cfg.Variant, b.cfg.GenreWeight).BuildAll(corpus)
	metrics.RecordBuildStage(StageContent, time.Since(start))

	start = time.Now()
	vectorizer, vectors, err := tfidf.FitTransform(docs)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	metrics.RecordBuildStage(StageTFIDF, time.Since(start))
	b.logger.Debug().
		Int("documents", vectorizer.Documents()).
		Int("vocabulary", vectorizer.VocabularySize()).
		Msg("Fitted TF-IDF vocabulary")

	start = time.Now()
	neighbors, err := b.index.Build(ctx, vectors, b.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	metrics.RecordBuildStage(StageIndex, time.Since(start))

	model := &Model{
		Neighbors: neighbors,
		Corpus:    corpus,
		Metadata: Metadata{
			Columns:        append(catalog.Columns(b.cfg.Variant), ColumnReleaseYear),
			NumMovies:      len(corpus),
			TopK:           b.cfg.TopK,
			VocabularySize: vectorizer.VocabularySize(),
			Backend:        b.cfg.Backend,
			Variant:        string(b.cfg.Variant),
			GenreWeight:    b.cfg.GenreWeight,
			BuiltAt:        b.now().UTC(),
			SourceChecksum: b.cfg.SourceChecksum,
		},
	}

	b.logger.Info().
		Int("movies", model.Metadata.NumMovies).
		Int("top_k", model.Metadata.TopK).
		Str("backend", model.Metadata.Backend).
		Msg("Built similarity model")

	return model, nil
}
