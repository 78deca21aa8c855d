// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"strconv"

	"github.com/tomtom215/marquee/internal/catalog"
)

// genreCodes maps the numeric genre ids sent by clients to catalog labels.
var genreCodes = map[int]string{
	1:  "Action",
	2:  "Adventure",
	3:  "Animation",
	4:  "Comedy",
	7:  "Drama",
	8:  "Fantasy",
	10: "Historical",
	11: "Horror",
	13: "Mystery",
	14: "Romance",
	17: "Thriller",
}

// GenreLabel resolves a reference to a label. Unknown codes pass through as
// their decimal form.
func GenreLabel(g GenreRef) string {
	if !g.IsCode {
		return g.Label
	}
	if label, ok := genreCodes[g.Code]; ok {
		return label
	}
	return strconv.Itoa(g.Code)
}

// InterestSet is the set of genre labels a user has shown interest in.
type InterestSet map[string]struct{}

// Interests unions the genres of every liked and watched movie.
func Interests(req *Request) InterestSet {
	set := make(InterestSet)
	add := func(movies []MovieDescriptor) {
		for _, m := range movies {
			for _, g := range m.Genres {
				if label := GenreLabel(g); label != "" {
					set[label] = struct{}{}
				}
			}
		}
	}
	add(req.LikedMovies)
	add(req.WatchHistory)
	return set
}

// Matches reports whether any of rec's genres is in the set.
func (s InterestSet) Matches(rec *catalog.MovieRecord) bool {
	for _, g := range rec.Genres {
		if _, ok := s[g]; ok {
			return true
		}
	}
	return false
}

// Labels returns the set's members, for logging.
func (s InterestSet) Labels() []string {
	out := make([]string, 0, len(s))
	for label := range s {
		out = append(out, label)
	}
	return out
}
