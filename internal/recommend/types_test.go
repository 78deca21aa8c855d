// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"reflect"
	"sort"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/catalog"
)

func TestGenreListUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"codes", `[1, 14]`, []string{"Action", "Romance"}, false},
		{"labels trimmed", `[" Drama ", "Horror"]`, []string{"Drama", "Horror"}, false},
		{"mixed", `[4, "Thriller"]`, []string{"Comedy", "Thriller"}, false},
		{"unknown code", `[99]`, []string{"99"}, false},
		{"fractional number", `[2.5]`, []string{"2.5"}, false},
		{"delimited string", `"Action, Drama"`, []string{"Action", "Drama"}, false},
		{"empty", `[]`, []string{}, false},
		{"integral float", `[1.0, 17.00]`, []string{"Action", "Thriller"}, false},
		{"exponent form", `[1e1]`, []string{"Historical"}, false},
		{"object entry skipped", `[{"id": 1, "name": "Action"}, 4]`, []string{"", "Comedy"}, false},
		{"nested array and bool", `[[1], true, null]`, []string{"", "", ""}, false},
		{"bool", `true`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l GenreList
			err := json.Unmarshal([]byte(tt.input), &l)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got := make([]string, len(l))
			for i, g := range l {
				got[i] = GenreLabel(g)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("labels = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescriptorDecode(t *testing.T) {
	body := `{"id": 603, "title": "The Matrix", "genres": [1, 17]}`
	var d MovieDescriptor
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if d.Title != "The Matrix" || len(d.Genres) != 2 || !d.Genres[1].IsCode || d.Genres[1].Code != 17 {
		t.Errorf("descriptor = %+v", d)
	}
}

func TestInterests(t *testing.T) {
	req := &Request{
		LikedMovies:  []MovieDescriptor{{Genres: GenreList{code(1), label("Drama")}}},
		WatchHistory: []MovieDescriptor{{Genres: GenreList{code(1), label(""), code(42)}}},
	}
	set := Interests(req)

	got := set.Labels()
	sort.Strings(got)
	if want := []string{"42", "Action", "Drama"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Interests() = %v, want %v", got, want)
	}

	rec := catalog.MovieRecord{Genres: []string{"Comedy", "Drama"}}
	if !set.Matches(&rec) {
		t.Error("Matches() = false for a Drama movie")
	}
	rec.Genres = []string{"Comedy"}
	if set.Matches(&rec) {
		t.Error("Matches() = true for a Comedy movie")
	}
}
