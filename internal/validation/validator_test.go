// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type recommendRequest struct {
	TopN   int      `json:"top_n" validate:"min=0,max=100"`
	Liked  []string `json:"liked_movies" validate:"max=3"`
	Source string   `json:"source" validate:"omitempty,oneof=web mobile"`
}

type similarRequest struct {
	IMDbID string `json:"imdb_id" validate:"required,imdb_id"`
	K      int    `json:"k" validate:"gte=0,lte=100"`
	Note   string `json:"-" validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantMsg string
	}{
		{"valid recommend", &recommendRequest{TopN: 10}, ""},
		{"top_n zero", &recommendRequest{TopN: 0}, ""},
		{"top_n boundary", &recommendRequest{TopN: 100}, ""},
		{"top_n negative", &recommendRequest{TopN: -1}, "top_n must be at least 0"},
		{"top_n too large", &recommendRequest{TopN: 101}, "top_n must be at most 100"},
		{"too many items", &recommendRequest{Liked: []string{"a", "b", "c", "d"}}, "liked_movies must be at most 3 items"},
		{"oneof", &recommendRequest{Source: "tv"}, "source must be one of: web mobile"},
		{"valid similar", &similarRequest{IMDbID: "tt0133093", K: 5}, ""},
		{"long imdb id", &similarRequest{IMDbID: "tt10872600"}, ""},
		{"missing imdb id", &similarRequest{}, "imdb_id is required"},
		{"bad imdb id", &similarRequest{IMDbID: "nm0000206"}, "imdb_id must be an IMDb id like tt0133093"},
		{"short imdb id", &similarRequest{IMDbID: "tt123"}, "imdb_id must be an IMDb id"},
		{"lte", &similarRequest{IMDbID: "tt0133093", K: 500}, "k must be less than or equal to 100"},
		{"dash json tag uses field name", &similarRequest{IMDbID: "tt0133093", Note: "too long"}, "Note must be at most 5 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %q", tt.wantMsg)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("ValidateStruct() = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestErrors_Fields(t *testing.T) {
	errs := ValidateStruct(&recommendRequest{TopN: 500, Source: "tv"})
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2", len(errs))
	}
	first := errs[0]
	if first.Field != "top_n" || first.Tag != "max" || first.Param != "100" {
		t.Errorf("first error = %s/%s/%s", first.Field, first.Tag, first.Param)
	}
	if v, ok := first.Value.(int); !ok || v != 500 {
		t.Errorf("Value = %v, want 500", first.Value)
	}
	if !strings.Contains(errs.Error(), "; ") {
		t.Errorf("Error() = %q, want messages joined with '; '", errs.Error())
	}
}

func TestErrors_Empty(t *testing.T) {
	if got := Errors(nil).Error(); got != "validation failed" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidateStruct_NonStruct(t *testing.T) {
	errs := ValidateStruct("not a struct")
	if len(errs) != 1 {
		t.Fatalf("ValidateStruct() on a string = %v, want one error", errs)
	}
	if errs[0].Field != "unknown" {
		t.Errorf("Field = %q, want unknown", errs[0].Field)
	}
}
