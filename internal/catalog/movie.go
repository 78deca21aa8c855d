// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package catalog turns a tabular movie dataset into the ordered corpus used
// by the offline index build and, after persisting, by the serving engine.
//
// Records are normalized once at ingestion: genres become a label list,
// numeric fields are coerced to 0 when absent (with a Has* flag recording
// the absence), and rows without a title, genres or a parseable release date
// are dropped.
package catalog

import (
	"sort"
	"strings"
	"time"
)

// MovieRecord is one catalog row after normalization.
type MovieRecord struct {
	// Index is the stable position of the record in its corpus (0..N-1).
	Index int

	IMDbID           string
	Title            string
	OriginalTitle    string
	OriginalLanguage string
	Overview         string

	// Genres are the normalized labels, in source order without duplicates.
	Genres []string

	// GenreText is the source delimited genre string.
	GenreText string

	Rating  float64
	Runtime float64

	HasOverview bool
	HasRating   bool
	HasRuntime  bool

	ReleaseDate time.Time
	ReleaseYear int
}

// HasGenre reports whether label is one of the record's genres.
func (m *MovieRecord) HasGenre(label string) bool {
	for _, g := range m.Genres {
		if g == label {
			return true
		}
	}
	return false
}

// ParseGenres splits a delimited genre string into trimmed, de-duplicated
// labels. Both "Action, Drama" and "Action,Drama" yield [Action Drama].
func ParseGenres(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// JoinGenres renders labels in the catalog's "Genre1, Genre2" form.
func JoinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}

// Thresholds is the quality/recency gate shared by the build pre-filter and
// the query-time filter.
type Thresholds struct {
	MinRating float64
	MinYear   int

	// IgnoreRating skips the rating test. The coarse dataset variant carries
	// no rating column.
	IgnoreRating bool
}

// Passes reports whether rec satisfies the thresholds.
func (t Thresholds) Passes(rec *MovieRecord) bool {
	if !t.IgnoreRating && rec.Rating < t.MinRating {
		return false
	}
	return rec.ReleaseYear >= t.MinYear
}

// Filter returns the records passing t, preserving order.
func Filter(records []MovieRecord, t Thresholds) []MovieRecord {
	out := make([]MovieRecord, 0, len(records))
	for i := range records {
		if t.Passes(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// SortByReleaseDesc orders records most recent first. Equal dates keep their
// relative order.
func SortByReleaseDesc(records []MovieRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ReleaseDate.After(records[j].ReleaseDate)
	})
}

// Reindex assigns Index = position for every record.
func Reindex(records []MovieRecord) {
	for i := range records {
		records[i].Index = i
	}
}

// Columns returns the column names carried by records of the given variant.
func Columns(variant Variant) []string {
	if variant == VariantCoarse {
		return append([]string(nil), CoarseColumns...)
	}
	return append([]string(nil), RequiredColumns...)
}
