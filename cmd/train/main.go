// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package main is the offline model trainer.
//
// It reads the movie catalog CSV, builds the TF-IDF neighbor index and saves
// it as the next version of the model artifact. Older versions beyond
// MODEL_KEEP_VERSIONS are pruned. When an event transport is configured a
// model-built event tells running servers to reload.
//
// Example:
//
//	export DATASET_PATH=/data/movies.csv
//	export MODEL_PATH=/data/models
//	export EVENTS_TRANSPORT=nats NATS_URL=nats://nats:4222
//	./marquee-train
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/recommend"
	"github.com/tomtom215/marquee/internal/recommend/similarity"
	"github.com/tomtom215/marquee/internal/recommend/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Caller:  cfg.Logging.Caller,
		Service: "marquee-train",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := train(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Training failed")
	}
}

func train(ctx context.Context, cfg *config.Config) error {
	logger := logging.WithComponent("train")
	start := time.Now()
	variant := catalog.Variant(cfg.Dataset.Variant)

	checksum, err := fileChecksum(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	records, stats, err := catalog.NewLoader(0).Load(ctx, cfg.Dataset.Path, variant)
	if err != nil {
		return err
	}
	logger.Info().
		Str("path", cfg.Dataset.Path).
		Str("variant", string(variant)).
		Int("rows", stats.Rows).
		Int("kept", stats.Kept).
		Int("missing_fields", stats.MissingFields).
		Int("unparsable_date", stats.UnparsableDate).
		Msg("Catalog loaded")

	if cfg.Dataset.Prefilter {
		before := len(records)
		records = catalog.Filter(records, catalog.Thresholds{
			MinRating:    cfg.Dataset.MinRating,
			MinYear:      cfg.Dataset.MinYear,
			IgnoreRating: variant == catalog.VariantCoarse,
		})
		logger.Info().
			Int("before", before).
			Int("after", len(records)).
			Float64("min_rating", cfg.Dataset.MinRating).
			Int("min_year", cfg.Dataset.MinYear).
			Msg("Catalog pre-filtered")
	}
	catalog.SortByReleaseDesc(records)
	catalog.Reindex(records)

	builder, err := recommend.NewBuilder(recommend.BuildConfig{
		TopK:        cfg.Build.TopK,
		Backend:     cfg.Build.Backend,
		Variant:     variant,
		GenreWeight: cfg.Build.GenreWeight,
		Index: similarity.Options{
			Workers:  cfg.Build.Workers,
			DropZero: cfg.Build.DropZero,
			LSHBits:  cfg.Build.LSH.Bits,
			LSHBands: cfg.Build.LSH.Bands,
			Seed:     cfg.Build.LSH.Seed,
		},
		SourceChecksum: checksum,
	})
	if err != nil {
		return err
	}

	model, err := builder.Build(ctx, records)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing model store")
		}
	}()

	meta, err := store.Save(ctx, cfg.Store.ModelName, model, storage.ModelMetadata{
		BuiltAt:         model.Metadata.BuiltAt,
		ItemCount:       model.Metadata.NumMovies,
		BuildDurationMS: time.Since(start).Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	logger.Info().
		Str("name", meta.Name).
		Int("version", meta.Version).
		Int("movies", meta.ItemCount).
		Int("vocabulary", model.Metadata.VocabularySize).
		Int64("size_bytes", meta.SizeBytes).
		Dur("duration", time.Since(start)).
		Msg("Model saved")

	if cfg.Store.KeepVersions > 0 {
		if err := store.Prune(ctx, cfg.Store.ModelName, cfg.Store.KeepVersions); err != nil {
			logger.Warn().Err(err).Msg("Failed to prune old model versions")
		}
	}

	return announce(ctx, cfg, &meta)
}

// announce publishes the model-built event. Failure is logged, not fatal:
// servers also poll the store.
func announce(ctx context.Context, cfg *config.Config, meta *storage.ModelMetadata) error {
	logger := logging.WithComponent("train")

	if cfg.Events.Transport == config.TransportGoChannel {
		logger.Debug().Msg("In-process event transport, servers will pick up the model by polling")
		return nil
	}

	bus, err := events.New(events.Config{
		Transport: cfg.Events.Transport,
		NATSURL:   cfg.Events.NATSURL,
		Topic:     cfg.Events.Topic,
		NATSName:  "marquee-train",
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Event bus unavailable, skipping model-built event")
		return nil
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	if !bus.Enabled() {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := bus.PublishModelBuilt(pubCtx, events.ModelBuilt{
		Name:      meta.Name,
		Version:   meta.Version,
		NumMovies: meta.ItemCount,
		BuiltAt:   meta.BuiltAt,
	}); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish model-built event")
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return "", fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum dataset: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
