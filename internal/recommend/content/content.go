// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package content renders a movie record into the single text document the
// TF-IDF vectorizer consumes.
//
// The full layout is:
//
//	title lang overview original_title (genres )xW  runtime mins imdb_id
//
// where W is the genre weight. Repeating the genre text raises its term
// frequency relative to the free-text overview. The coarse layout keeps only
// title, language, original title and genres.
package content

import (
	"strconv"
	"strings"

	"github.com/tomtom215/marquee/internal/catalog"
)

// DefaultGenreWeight is the number of times genre text is repeated.
const DefaultGenreWeight = 3

// Builder produces content strings.
type Builder struct {
	GenreWeight int
	Variant     catalog.Variant
}

// NewBuilder returns a builder for the given variant. A weight below 1 falls
// back to DefaultGenreWeight.
func NewBuilder(variant catalog.Variant, genreWeight int) *Builder {
	if genreWeight < 1 {
		genreWeight = DefaultGenreWeight
	}
	return &Builder{GenreWeight: genreWeight, Variant: variant}
}

// Build renders one record.
func (b *Builder) Build(rec *catalog.MovieRecord) string {
	var sb strings.Builder

	if b.Variant == catalog.VariantCoarse {
		sb.WriteString(rec.Title)
		sb.WriteByte(' ')
		sb.WriteString(rec.OriginalLanguage)
		sb.WriteByte(' ')
		sb.WriteString(rec.OriginalTitle)
		sb.WriteByte(' ')
		sb.WriteString(rec.GenreText)
		return sb.String()
	}

	weight := b.GenreWeight
	if weight < 1 {
		weight = DefaultGenreWeight
	}

	sb.WriteString(rec.Title)
	sb.WriteByte(' ')
	sb.WriteString(rec.OriginalLanguage)
	sb.WriteByte(' ')
	sb.WriteString(rec.Overview)
	sb.WriteByte(' ')
	sb.WriteString(rec.OriginalTitle)
	sb.WriteByte(' ')
	for i := 0; i < weight; i++ {
		sb.WriteString(rec.GenreText)
		sb.WriteByte(' ')
	}
	sb.WriteByte(' ')
	sb.WriteString(runtimeText(rec))
	sb.WriteString(" mins ")
	sb.WriteString(rec.IMDbID)
	return sb.String()
}

// BuildAll renders every record, preserving order.
func (b *Builder) BuildAll(records []catalog.MovieRecord) []string {
	docs := make([]string, len(records))
	for i := range records {
		docs[i] = b.Build(&records[i])
	}
	return docs
}

func runtimeText(rec *catalog.MovieRecord) string {
	if !rec.HasRuntime {
		return "0"
	}
	return strconv.FormatFloat(rec.Runtime, 'f', -1, 64)
}
