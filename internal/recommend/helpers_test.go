// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/recommend/similarity"
)

func movie(id, title, genres string, rating float64, date string) catalog.MovieRecord {
	released, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return catalog.MovieRecord{
		IMDbID:           id,
		Title:            title,
		OriginalTitle:    title,
		OriginalLanguage: "en",
		Overview:         title + " overview",
		HasOverview:      true,
		GenreText:        genres,
		Genres:           catalog.ParseGenres(genres),
		Rating:           rating,
		HasRating:        true,
		Runtime:          100,
		HasRuntime:       true,
		ReleaseDate:      released,
		ReleaseYear:      released.Year(),
	}
}

// scenarioCorpus holds three Action movies and two others.
func scenarioCorpus() []catalog.MovieRecord {
	return []catalog.MovieRecord{
		movie("tt0000001", "Steel Run", "Action", 8.1, "2018-05-04"),
		movie("tt0000002", "Steel Run Again", "Action", 7.2, "2019-07-12"),
		movie("tt0000003", "Iron Chase", "Action, Thriller", 7.9, "2016-02-19"),
		movie("tt0000004", "Quiet Harbor", "Drama", 9.0, "2020-10-01"),
		movie("tt0000005", "Laugh Track", "Comedy", 9.0, "2020-03-15"),
	}
}

func buildModel(t *testing.T, records []catalog.MovieRecord) *Model {
	t.Helper()
	b, err := NewBuilder(BuildConfig{
		TopK:    3,
		Backend: similarity.BackendBruteForce,
		Index:   similarity.Options{Workers: 2},
	})
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	m, err := b.Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func newTestEngine(t *testing.T, records []catalog.MovieRecord) *Engine {
	t.Helper()
	e := NewEngine(nil, DefaultEngineConfig())
	if err := e.SetModel(buildModel(t, records), 1); err != nil {
		t.Fatalf("SetModel() error = %v", err)
	}
	return e
}

func titles(movies []Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}
