// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolate points CONFIG_PATH at a missing file and runs from an empty
// directory so no stray config.yaml is picked up.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Build.TopK != 50 {
		t.Errorf("Build.TopK = %d, want 50", cfg.Build.TopK)
	}
	if cfg.Build.Backend != BackendBruteForce {
		t.Errorf("Build.Backend = %q, want %q", cfg.Build.Backend, BackendBruteForce)
	}
	if cfg.Build.GenreWeight != 3 {
		t.Errorf("Build.GenreWeight = %d, want 3", cfg.Build.GenreWeight)
	}
	if cfg.Recommend.MinRating != 7.5 {
		t.Errorf("Recommend.MinRating = %v, want 7.5", cfg.Recommend.MinRating)
	}
	if cfg.Recommend.MinYear != 2015 {
		t.Errorf("Recommend.MinYear = %d, want 2015", cfg.Recommend.MinYear)
	}
	if cfg.Recommend.DefaultTopN != 10 {
		t.Errorf("Recommend.DefaultTopN = %d, want 10", cfg.Recommend.DefaultTopN)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() error = %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"TOP_K", "build.top_k"},
		{"SIMILARITY_BACKEND", "build.backend"},
		{"MODEL_PATH", "store.path"},
		{"DATASET_PATH", "dataset.path"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"NATS_URL", "events.nats_url"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("TOP_K", "20")
	t.Setenv("SIMILARITY_BACKEND", "inverted")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MODEL_RELOAD_INTERVAL", "30s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Build.TopK != 20 {
		t.Errorf("Build.TopK = %d, want 20", cfg.Build.TopK)
	}
	if cfg.Build.Backend != BackendInverted {
		t.Errorf("Build.Backend = %q, want inverted", cfg.Build.Backend)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	wantOrigins := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, wantOrigins) {
		t.Errorf("Security.CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, wantOrigins)
	}
	if cfg.Recommend.ReloadInterval != 30*time.Second {
		t.Errorf("Recommend.ReloadInterval = %v, want 30s", cfg.Recommend.ReloadInterval)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default 0.0.0.0", cfg.Server.Host)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	isolate(t)

	content := `
server:
  port: 8888
dataset:
  path: "/srv/catalog.csv"
  variant: "coarse"
build:
  backend: "lsh"
  lsh:
    bits: 32
    bands: 8
store:
  backend: "badger"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7000")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000 (env overrides file)", cfg.Server.Port)
	}
	if cfg.Dataset.Path != "/srv/catalog.csv" {
		t.Errorf("Dataset.Path = %q, want /srv/catalog.csv", cfg.Dataset.Path)
	}
	if cfg.Dataset.Variant != VariantCoarse {
		t.Errorf("Dataset.Variant = %q, want coarse", cfg.Dataset.Variant)
	}
	if cfg.Build.LSH.Bits != 32 || cfg.Build.LSH.Bands != 8 {
		t.Errorf("Build.LSH = %+v, want bits=32 bands=8", cfg.Build.LSH)
	}
	if cfg.Build.LSH.Seed != 42 {
		t.Errorf("Build.LSH.Seed = %d, want default 42", cfg.Build.LSH.Seed)
	}
	if cfg.Store.Backend != StoreBadger {
		t.Errorf("Store.Backend = %q, want badger", cfg.Store.Backend)
	}
}

func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "HTTP_PORT"},
		{"zero top k", map[string]string{"TOP_K": "0"}, "TOP_K"},
		{"unknown backend", map[string]string{"SIMILARITY_BACKEND": "hnsw"}, "SIMILARITY_BACKEND"},
		{"lsh bands mismatch", map[string]string{"SIMILARITY_BACKEND": "lsh", "LSH_BITS": "30", "LSH_BANDS": "4"}, "divisible"},
		{"unknown store", map[string]string{"MODEL_STORE": "s3"}, "MODEL_STORE"},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"unknown transport", map[string]string{"EVENTS_TRANSPORT": "kafka"}, "EVENTS_TRANSPORT"},
		{"bad variant", map[string]string{"DATASET_VARIANT": "tiny"}, "DATASET_VARIANT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatal("LoadWithKoanf() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadWithKoanf() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 5000}
	if got := s.Addr(); got != "127.0.0.1:5000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:5000", got)
	}
}
