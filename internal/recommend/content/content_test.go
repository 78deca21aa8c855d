// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package content

import (
	"strings"
	"testing"

	"github.com/tomtom215/marquee/internal/catalog"
)

func sample() catalog.MovieRecord {
	return catalog.MovieRecord{
		IMDbID:           "tt0000001",
		Title:            "Alpha",
		OriginalTitle:    "Alpha Original",
		OriginalLanguage: "en",
		Overview:         "A heist goes wrong.",
		HasOverview:      true,
		GenreText:        "Action, Thriller",
		Genres:           []string{"Action", "Thriller"},
		Runtime:          121,
		HasRuntime:       true,
	}
}

func TestBuildFull(t *testing.T) {
	rec := sample()
	got := NewBuilder(catalog.VariantFull, 3).Build(&rec)
	want := "Alpha en A heist goes wrong. Alpha Original " +
		"Action, Thriller Action, Thriller Action, Thriller  121 mins tt0000001"
	if got != want {
		t.Errorf("Build() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildMissingValues(t *testing.T) {
	rec := catalog.MovieRecord{Title: "Beta", GenreText: "Drama", Genres: []string{"Drama"}}
	got := NewBuilder(catalog.VariantFull, 1).Build(&rec)
	want := "Beta    Drama  0 mins "
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildGenreWeight(t *testing.T) {
	rec := sample()
	tests := []struct {
		weight int
		want   int
	}{
		{1, 1},
		{3, 3},
		{5, 5},
		{0, DefaultGenreWeight},
		{-2, DefaultGenreWeight},
	}
	for _, tt := range tests {
		b := NewBuilder(catalog.VariantFull, tt.weight)
		if got := strings.Count(b.Build(&rec), "Thriller"); got != tt.want {
			t.Errorf("weight %d: Thriller appears %d times, want %d", tt.weight, got, tt.want)
		}
	}
}

func TestBuildFractionalRuntime(t *testing.T) {
	rec := sample()
	rec.Runtime = 88.5
	got := NewBuilder(catalog.VariantFull, 1).Build(&rec)
	if !strings.Contains(got, " 88.5 mins ") {
		t.Errorf("Build() = %q, want runtime 88.5", got)
	}
}

func TestBuildCoarse(t *testing.T) {
	rec := sample()
	got := NewBuilder(catalog.VariantCoarse, 3).Build(&rec)
	want := "Alpha en Alpha Original Action, Thriller"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestBuildAll(t *testing.T) {
	records := []catalog.MovieRecord{sample(), {Title: "Beta", GenreText: "Drama"}}
	b := NewBuilder(catalog.VariantFull, 3)
	docs := b.BuildAll(records)
	if len(docs) != 2 {
		t.Fatalf("BuildAll() returned %d docs, want 2", len(docs))
	}
	if !strings.HasPrefix(docs[1], "Beta ") {
		t.Errorf("docs[1] = %q, want Beta first", docs[1])
	}
	if again := b.BuildAll(records); again[0] != docs[0] {
		t.Error("BuildAll() is not deterministic")
	}
}
