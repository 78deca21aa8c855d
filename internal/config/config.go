// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package config loads Marquee configuration for both the offline trainer
// and the HTTP server.
//
// Values are layered with Koanf v2 (highest priority wins):
//
//  1. Environment variables (explicit allow-list, see envTransformFunc)
//  2. YAML config file (CONFIG_PATH, ./config.yaml, /etc/marquee/config.yaml)
//  3. Built-in defaults (defaultConfig)
//
// Load validates the result; callers treat any error as fatal.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Dataset   DatasetConfig   `koanf:"dataset"`
	Build     BuildConfig     `koanf:"build"`
	Store     StoreConfig     `koanf:"store"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST (default: 0.0.0.0)
//   - HTTP_PORT (default: 5000)
//   - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT (default: 15s)
//   - HTTP_REQUEST_TIMEOUT: per-request budget inside handlers (default: 10s)
//   - HTTP_SHUTDOWN_TIMEOUT (default: 10s)
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	// CORSOrigins lists allowed origins (CORS_ORIGINS, comma-separated).
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs is the number of requests allowed per RateLimitWindow per client IP.
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Dataset variants.
const (
	VariantFull   = "full"
	VariantCoarse = "coarse"
)

// DatasetConfig describes the catalog consumed by the trainer.
type DatasetConfig struct {
	// Path to the catalog CSV (DATASET_PATH).
	Path string `koanf:"path"`

	// Variant is "full" (all columns) or "coarse" (no overview, rating or runtime).
	Variant string `koanf:"variant"`

	// Prefilter restricts the corpus to movies passing MinRating and MinYear
	// before the index is built.
	Prefilter bool    `koanf:"prefilter"`
	MinRating float64 `koanf:"min_rating"`
	MinYear   int     `koanf:"min_year"`
}

// Similarity backends.
const (
	BackendBruteForce = "bruteforce"
	BackendInverted   = "inverted"
	BackendLSH        = "lsh"
)

// BuildConfig controls the offline index build.
type BuildConfig struct {
	// TopK is the number of neighbors kept per movie (TOP_K).
	TopK int `koanf:"top_k"`

	// Backend selects the similarity index implementation (SIMILARITY_BACKEND).
	Backend string `koanf:"backend"`

	// GenreWeight is how many times genre text is repeated in the content string.
	GenreWeight int `koanf:"genre_weight"`

	// Workers bounds parallel neighbor computation. 0 = runtime.NumCPU().
	Workers int `koanf:"workers"`

	// DropZero removes neighbors with zero similarity instead of padding to TopK.
	DropZero bool `koanf:"drop_zero"`

	LSH LSHConfig `koanf:"lsh"`
}

// LSHConfig tunes the approximate backend.
type LSHConfig struct {
	Bits  int   `koanf:"bits"`
	Bands int   `koanf:"bands"`
	Seed  int64 `koanf:"seed"`
}

// Store backends.
const (
	StoreFile   = "file"
	StoreBadger = "badger"
)

// StoreConfig selects where model artifacts live.
type StoreConfig struct {
	Backend      string `koanf:"backend"`
	Path         string `koanf:"path"`
	ModelName    string `koanf:"model_name"`
	KeepVersions int    `koanf:"keep_versions"`
}

// RecommendConfig holds query-time settings.
type RecommendConfig struct {
	DefaultTopN int     `koanf:"default_top_n"`
	MaxTopN     int     `koanf:"max_top_n"`
	MinRating   float64 `koanf:"min_rating"`
	MinYear     int     `koanf:"min_year"`

	// ReloadInterval polls the store for newer artifacts. 0 disables polling.
	ReloadInterval time.Duration `koanf:"reload_interval"`

	// MinReloadInterval is the minimum spacing between two reloads.
	MinReloadInterval time.Duration `koanf:"min_reload_interval"`

	LoadTimeout time.Duration `koanf:"load_timeout"`

	SimilarCacheSize int           `koanf:"similar_cache_size"`
	SimilarCacheTTL  time.Duration `koanf:"similar_cache_ttl"`
}

// Event transports.
const (
	TransportNone      = "none"
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// EventsConfig configures the model-built notification bus.
type EventsConfig struct {
	Transport  string `koanf:"transport"`
	NATSURL    string `koanf:"nats_url"`
	Topic      string `koanf:"topic"`
	QueueGroup string `koanf:"queue_group"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Load is the entry point used by both binaries.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
