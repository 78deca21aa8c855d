// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/marquee/config.yaml",
	"/etc/marquee/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. The thresholds and K match the
// values the catalog was originally tuned with.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Dataset: DatasetConfig{
			Path:      "/data/movies.csv",
			Variant:   VariantFull,
			Prefilter: true,
			MinRating: 7.5,
			MinYear:   2015,
		},
		Build: BuildConfig{
			TopK:        50,
			Backend:     BackendBruteForce,
			GenreWeight: 3,
			Workers:     0,
			LSH: LSHConfig{
				Bits:  64,
				Bands: 16,
				Seed:  42,
			},
		},
		Store: StoreConfig{
			Backend:      StoreFile,
			Path:         "/data/models",
			ModelName:    "movie_recommender",
			KeepVersions: 3,
		},
		Recommend: RecommendConfig{
			DefaultTopN:       10,
			MaxTopN:           100,
			MinRating:         7.5,
			MinYear:           2015,
			ReloadInterval:    5 * time.Minute,
			MinReloadInterval: 10 * time.Second,
			LoadTimeout:       2 * time.Minute,
			SimilarCacheSize:  1000,
			SimilarCacheTTL:   10 * time.Minute,
		},
		Events: EventsConfig{
			Transport:  TransportGoChannel,
			NATSURL:    "nats://127.0.0.1:4222",
			Topic:      "marquee.model.built",
			QueueGroup: "",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// environment variables, in that order of increasing priority.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings is the allow-list of environment variables and their config paths.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_request_timeout":  "server.request_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"dataset_path":       "dataset.path",
	"dataset_variant":    "dataset.variant",
	"dataset_prefilter":  "dataset.prefilter",
	"dataset_min_rating": "dataset.min_rating",
	"dataset_min_year":   "dataset.min_year",

	"top_k":              "build.top_k",
	"similarity_backend": "build.backend",
	"genre_weight":       "build.genre_weight",
	"build_workers":      "build.workers",
	"build_drop_zero":    "build.drop_zero",
	"lsh_bits":           "build.lsh.bits",
	"lsh_bands":          "build.lsh.bands",
	"lsh_seed":           "build.lsh.seed",

	"model_store":         "store.backend",
	"model_path":          "store.path",
	"model_name":          "store.model_name",
	"model_keep_versions": "store.keep_versions",

	"recommend_default_top_n":   "recommend.default_top_n",
	"recommend_max_top_n":       "recommend.max_top_n",
	"recommend_min_rating":      "recommend.min_rating",
	"recommend_min_year":        "recommend.min_year",
	"model_reload_interval":     "recommend.reload_interval",
	"model_min_reload_interval": "recommend.min_reload_interval",
	"model_load_timeout":        "recommend.load_timeout",
	"similar_cache_size":        "recommend.similar_cache_size",
	"similar_cache_ttl":         "recommend.similar_cache_ttl",

	"events_transport":   "events.transport",
	"nats_url":           "events.nats_url",
	"events_topic":       "events.topic",
	"events_queue_group": "events.queue_group",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are ignored.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - TOP_K -> build.top_k
//   - MODEL_PATH -> store.path
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
