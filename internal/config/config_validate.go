// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/marquee/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateBuild(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.validateEvents()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func (c *Config) validateDataset() error {
	switch c.Dataset.Variant {
	case VariantFull, VariantCoarse:
	default:
		return fmt.Errorf("DATASET_VARIANT must be %q or %q, got %q", VariantFull, VariantCoarse, c.Dataset.Variant)
	}
	if c.Dataset.MinRating < 0 || c.Dataset.MinRating > 10 {
		return fmt.Errorf("DATASET_MIN_RATING must be between 0 and 10, got %v", c.Dataset.MinRating)
	}
	return nil
}

func (c *Config) validateBuild() error {
	if c.Build.TopK < 1 {
		return fmt.Errorf("TOP_K must be at least 1, got %d", c.Build.TopK)
	}
	if c.Build.GenreWeight < 1 {
		return fmt.Errorf("GENRE_WEIGHT must be at least 1, got %d", c.Build.GenreWeight)
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("BUILD_WORKERS must not be negative")
	}
	switch c.Build.Backend {
	case BackendBruteForce, BackendInverted:
	case BackendLSH:
		if c.Build.LSH.Bits < 1 || c.Build.LSH.Bands < 1 {
			return fmt.Errorf("LSH_BITS and LSH_BANDS must be positive")
		}
		if c.Build.LSH.Bits%c.Build.LSH.Bands != 0 {
			return fmt.Errorf("LSH_BITS (%d) must be divisible by LSH_BANDS (%d)", c.Build.LSH.Bits, c.Build.LSH.Bands)
		}
		if c.Build.LSH.Bits/c.Build.LSH.Bands > 64 {
			return fmt.Errorf("LSH_BITS / LSH_BANDS must not exceed 64")
		}
	default:
		return fmt.Errorf("SIMILARITY_BACKEND must be one of %s, %s, %s, got %q",
			BackendBruteForce, BackendInverted, BackendLSH, c.Build.Backend)
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreFile, StoreBadger:
	default:
		return fmt.Errorf("MODEL_STORE must be %q or %q, got %q", StoreFile, StoreBadger, c.Store.Backend)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.Store.ModelName == "" || strings.ContainsAny(c.Store.ModelName, `/\:`) {
		return fmt.Errorf("MODEL_NAME must be a non-empty name without path separators, got %q", c.Store.ModelName)
	}
	if c.Store.KeepVersions < 1 {
		return fmt.Errorf("MODEL_KEEP_VERSIONS must be at least 1")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.DefaultTopN < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_N must be at least 1")
	}
	if r.MaxTopN < r.DefaultTopN {
		return fmt.Errorf("RECOMMEND_MAX_TOP_N (%d) must be >= RECOMMEND_DEFAULT_TOP_N (%d)", r.MaxTopN, r.DefaultTopN)
	}
	if r.ReloadInterval < 0 || r.MinReloadInterval < 0 {
		return fmt.Errorf("reload intervals must not be negative")
	}
	if r.LoadTimeout <= 0 {
		return fmt.Errorf("MODEL_LOAD_TIMEOUT must be positive")
	}
	if r.SimilarCacheSize < 0 {
		return fmt.Errorf("SIMILAR_CACHE_SIZE must not be negative")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Transport {
	case TransportNone, TransportGoChannel:
	case TransportNATS:
		if c.Events.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when EVENTS_TRANSPORT=nats")
		}
	default:
		return fmt.Errorf("EVENTS_TRANSPORT must be one of none, gochannel, nats, got %q", c.Events.Transport)
	}
	if c.Events.Transport != TransportNone && c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC is required")
	}
	return nil
}
