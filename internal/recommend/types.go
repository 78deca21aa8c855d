// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/catalog"
)

// DefaultOverview replaces a missing overview in responses.
const DefaultOverview = "No description available"

// GenreRef is one genre of a movie descriptor. Clients send either a
// numeric genre code or a text label.
type GenreRef struct {
	Code   int
	Label  string
	IsCode bool
}

// UnmarshalJSON accepts a JSON number or string. Integral numbers, including
// forms like 1.0, become codes; other numbers keep their literal text as the
// label. Entries of any other JSON type decode to the zero GenreRef, which
// carries no genre and is skipped like null.
func (g *GenreRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*g = GenreRef{}
		return nil
	}

	if c := data[0]; c == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = GenreRef{Label: strings.TrimSpace(s)}
		return nil
	} else if c != '-' && (c < '0' || c > '9') {
		*g = GenreRef{}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("genre must be a number or string: %w", err)
	}
	if code, err := strconv.Atoi(n.String()); err == nil {
		*g = GenreRef{Code: code, IsCode: true}
		return nil
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32 {
		*g = GenreRef{Code: int(f), IsCode: true}
		return nil
	}
	*g = GenreRef{Label: n.String()}
	return nil
}

// MarshalJSON writes codes as numbers and labels as strings.
func (g GenreRef) MarshalJSON() ([]byte, error) {
	if g.IsCode {
		return []byte(strconv.Itoa(g.Code)), nil
	}
	return json.Marshal(g.Label)
}

// GenreList is a descriptor's genre field. It accepts a JSON array of
// GenreRef or, for clients that send catalog-style text, a single
// "Genre1, Genre2" string.
type GenreList []GenreRef

// UnmarshalJSON implements json.Unmarshaler.
func (l *GenreList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		labels := catalog.ParseGenres(s)
		out := make(GenreList, len(labels))
		for i, label := range labels {
			out[i] = GenreRef{Label: label}
		}
		*l = out
		return nil
	}

	var refs []GenreRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return err
	}
	*l = refs
	return nil
}

// MovieDescriptor is a movie the user liked or watched. Only genres are
// used for ranking; the other fields are accepted for logging.
type MovieDescriptor struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Title  string          `json:"title,omitempty"`
	Genres GenreList       `json:"genres"`
}

// Request is a recommendation query.
type Request struct {
	LikedMovies  []MovieDescriptor
	WatchHistory []MovieDescriptor

	// TopN caps the result size. Values <= 0 use the configured default.
	TopN int
}

// HasSignal reports whether the request carries any preference at all.
func (r *Request) HasSignal() bool {
	return len(r.LikedMovies) > 0 || len(r.WatchHistory) > 0
}

// Movie is the response projection of a catalog record.
type Movie struct {
	IMDbID           string  `json:"imdb_id"`
	Title            string  `json:"title"`
	Genres           string  `json:"genres"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	IMDbRating       float64 `json:"imdb_rating"`
	Runtime          float64 `json:"runtime"`
	ReleaseYear      int     `json:"release_year"`
}

// SimilarMovie is one neighbor returned by Engine.Similar.
type SimilarMovie struct {
	IMDbID      string  `json:"imdb_id"`
	Title       string  `json:"title"`
	Genres      string  `json:"genres"`
	ReleaseYear int     `json:"release_year"`
	Score       float64 `json:"score"`
}

// project converts a record to its response form, applying defaults for
// values the source did not carry.
func project(rec *catalog.MovieRecord) Movie {
	m := Movie{
		IMDbID:           rec.IMDbID,
		Title:            rec.Title,
		Genres:           catalog.JoinGenres(rec.Genres),
		OriginalLanguage: rec.OriginalLanguage,
		Overview:         rec.Overview,
		ReleaseYear:      rec.ReleaseYear,
	}
	if !rec.HasOverview || m.Overview == "" {
		m.Overview = DefaultOverview
	}
	if rec.HasRating {
		m.IMDbRating = rec.Rating
	}
	if rec.HasRuntime {
		m.Runtime = rec.Runtime
	}
	return m
}
