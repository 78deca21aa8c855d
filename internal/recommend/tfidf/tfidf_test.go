// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package tfidf

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Action, Thriller", []string{"action", "thriller"}},
		{"drops single characters", "A heist 9 mins", []string{"heist", "mins"}},
		{"keeps ids and digits", "tt0111161 142 mins", []string{"tt0111161", "142", "mins"}},
		{"unicode letters", "Amélie à Paris", []string{"amélie", "paris"}},
		{"underscore is a word char", "snake_case x", []string{"snake_case"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestAnalyzeRemovesStopWords(t *testing.T) {
	got := Analyze("The movie is about a dog and its owner")
	want := []string{"movie", "dog", "owner"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze() = %v, want %v", got, want)
	}
	if !IsStopWord("the") || IsStopWord("movie") {
		t.Error("IsStopWord() gave wrong answer")
	}
}

func TestFitErrors(t *testing.T) {
	if _, err := Fit(nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("Fit(nil) error = %v, want ErrEmptyCorpus", err)
	}
	if _, err := Fit([]string{"the and of", "a"}); !errors.Is(err, ErrEmptyVocabulary) {
		t.Errorf("Fit(stop words) error = %v, want ErrEmptyVocabulary", err)
	}
}

func TestFitVocabularyAndIDF(t *testing.T) {
	m, err := Fit([]string{"space opera", "space western", "romance"})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	wantTerms := []string{"opera", "romance", "space", "western"}
	if !reflect.DeepEqual(m.Terms(), wantTerms) {
		t.Errorf("Terms() = %v, want %v", m.Terms(), wantTerms)
	}
	if m.VocabularySize() != 4 || m.Documents() != 3 {
		t.Errorf("VocabularySize() = %d, Documents() = %d", m.VocabularySize(), m.Documents())
	}

	idf, ok := m.IDF("space")
	want := math.Log(4.0/3.0) + 1
	if !ok || math.Abs(idf-want) > 1e-12 {
		t.Errorf("IDF(space) = %v, %v, want %v", idf, ok, want)
	}
	rare, _ := m.IDF("opera")
	if rare <= idf {
		t.Errorf("rare term idf %v should exceed common term idf %v", rare, idf)
	}
	if _, ok := m.IDF("missing"); ok {
		t.Error("IDF(missing) should not be found")
	}
}

func TestTransformNormalized(t *testing.T) {
	m, vecs, err := FitTransform([]string{"space opera space", "space western", "romance drama"})
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for i, v := range vecs {
		if math.Abs(v.Norm()-1) > 1e-9 {
			t.Errorf("vector %d norm = %v, want 1", i, v.Norm())
		}
		for j := 1; j < len(v); j++ {
			if v[j-1].Index >= v[j].Index {
				t.Errorf("vector %d not sorted by index: %v", i, v)
			}
		}
	}

	if got := m.Transform("unknown words only"); len(got) != 0 {
		t.Errorf("Transform(unknown) = %v, want empty", got)
	}
}

func TestCosine(t *testing.T) {
	_, vecs, err := FitTransform([]string{"space opera", "space opera", "romance drama", "space romance"})
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	if got := Cosine(vecs[0], vecs[1]); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical docs cosine = %v, want 1", got)
	}
	if got := Cosine(vecs[0], vecs[2]); got != 0 {
		t.Errorf("disjoint docs cosine = %v, want 0", got)
	}
	mixed := Cosine(vecs[0], vecs[3])
	if mixed <= 0 || mixed >= 1 {
		t.Errorf("overlapping docs cosine = %v, want in (0,1)", mixed)
	}
	if got := vecs[0].Dot(vecs[3]); math.Abs(got-mixed) > 1e-9 {
		t.Errorf("Dot() = %v, want cosine %v for normalized vectors", got, mixed)
	}
	if got := Cosine(nil, vecs[0]); got != 0 {
		t.Errorf("zero vector cosine = %v, want 0", got)
	}
}
