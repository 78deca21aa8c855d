// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/recommend/similarity"
)

// ColumnReleaseYear is the derived column every model carries in addition to
// the dataset columns.
const ColumnReleaseYear = "release_year"

// ErrSchemaMismatch is returned when a loaded artifact does not carry the
// columns or shape the engine needs.
var ErrSchemaMismatch = errors.New("model schema mismatch")

// Metadata describes how a Model was built.
type Metadata struct {
	Columns        []string
	NumMovies      int
	TopK           int
	VocabularySize int
	Backend        string
	Variant        string
	GenreWeight    int
	BuiltAt        time.Time

	// SourceChecksum is the SHA-256 of the dataset file, when known.
	SourceChecksum string
}

// Model is the persisted unit: the corpus and its neighbor lists, aligned by
// position.
type Model struct {
	Neighbors []similarity.NeighborList
	Corpus    []catalog.MovieRecord
	Metadata  Metadata
}

// Validate checks that m is usable for serving.
func (m *Model) Validate() error {
	variant := catalog.Variant(m.Metadata.Variant)
	if variant == "" {
		variant = catalog.VariantFull
	}

	have := make(map[string]bool, len(m.Metadata.Columns))
	for _, c := range m.Metadata.Columns {
		have[c] = true
	}
	var missing []string
	for _, c := range append(catalog.Columns(variant), ColumnReleaseYear) {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %v", ErrSchemaMismatch, missing)
	}

	if len(m.Neighbors) != len(m.Corpus) {
		return fmt.Errorf("%w: %d neighbor lists for %d movies", ErrSchemaMismatch, len(m.Neighbors), len(m.Corpus))
	}
	if m.Metadata.NumMovies != len(m.Corpus) {
		return fmt.Errorf("%w: metadata reports %d movies, corpus has %d", ErrSchemaMismatch, m.Metadata.NumMovies, len(m.Corpus))
	}
	for i := range m.Corpus {
		if m.Corpus[i].Index != i {
			return fmt.Errorf("%w: movie at position %d has index %d", ErrSchemaMismatch, i, m.Corpus[i].Index)
		}
	}
	if m.Metadata.TopK > 0 {
		if err := similarity.Validate(m.Neighbors, m.Metadata.TopK); err != nil {
			return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
	}
	return nil
}

// Thresholds returns the query-time gate for the model's dataset variant.
func (m *Model) Thresholds(minRating float64, minYear int) catalog.Thresholds {
	return catalog.Thresholds{
		MinRating:    minRating,
		MinYear:      minYear,
		IgnoreRating: catalog.Variant(m.Metadata.Variant) == catalog.VariantCoarse,
	}
}
