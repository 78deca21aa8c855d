// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package storage persists versioned model artifacts.
//
// An artifact is gob-encoded, gzip-compressed and stored together with its
// metadata and the SHA-256 checksum of the uncompressed payload. Loading
// verifies the checksum before decoding, so a truncated or tampered artifact
// fails with ErrCorruptModel instead of yielding a partial model.
//
// Two backends share the envelope format:
//
//   - FileStore writes {name}_v{version}.gob.gz files, via a temp file and
//     rename so readers never observe a partially written artifact.
//   - BadgerStore keeps artifacts in a BadgerDB under model:{name}:v{version}.
//
// Versions are per name and increase monotonically; Load with version 0
// returns the latest.
package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrModelNotFound is returned when no artifact exists for a name/version.
	ErrModelNotFound = errors.New("model not found")

	// ErrCorruptModel is returned when an artifact fails to decode or its
	// checksum does not match.
	ErrCorruptModel = errors.New("model artifact is corrupt")
)

// ModelMetadata describes a stored artifact.
type ModelMetadata struct {
	Name    string `json:"name"`
	Version int    `json:"version"`

	// BuiltAt is when the offline build finished.
	BuiltAt time.Time `json:"built_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// ItemCount is the number of movies in the corpus.
	ItemCount int `json:"item_count"`

	// Checksum is the SHA-256 of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size.
	SizeBytes int64 `json:"size_bytes"`

	BuildDurationMS int64 `json:"build_duration_ms"`
}

// Store persists and retrieves model artifacts.
type Store interface {
	// Save writes model as the next version of name and returns the
	// completed metadata.
	Save(ctx context.Context, name string, model any, meta ModelMetadata) (ModelMetadata, error)

	// Load decodes version of name into target. Version 0 loads the latest.
	Load(ctx context.Context, name string, version int, target any) (*ModelMetadata, error)

	// LatestVersion returns the newest version of name.
	LatestVersion(name string) (int, bool)

	// List returns the metadata of the latest version of every name.
	List(ctx context.Context) ([]ModelMetadata, error)

	// Prune deletes all but the newest keep versions of name.
	Prune(ctx context.Context, name string, keep int) error

	Close() error
}

// envelope is the persisted unit: metadata plus compressed payload.
type envelope struct {
	Metadata       ModelMetadata
	CompressedData []byte
}

// encode serializes model into an envelope, filling checksum and size.
//
//nolint:gocritic // meta passed by value, the caller's copy is not modified
func encode(model any, meta ModelMetadata) (*envelope, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(model); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("compress model: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now().UTC()

	return &envelope{Metadata: meta, CompressedData: compressed.Bytes()}, nil
}

// decode verifies env and decodes its payload into target.
func decode(env *envelope, target any) (*ModelMetadata, error) {
	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %v", ErrCorruptModel, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %v", ErrCorruptModel, err)
	}

	hash := sha256.Sum256(raw)
	if got := hex.EncodeToString(hash[:]); got != env.Metadata.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch: expected %s, got %s", ErrCorruptModel, env.Metadata.Checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrCorruptModel, err)
	}

	meta := env.Metadata
	return &meta, nil
}

func marshalEnvelope(env *envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("write envelope: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalEnvelope(r io.Reader) (*envelope, error) {
	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: read envelope: %v", ErrCorruptModel, err)
	}
	return &env, nil
}
