// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package tfidf converts content strings into sparse TF-IDF vectors.
//
// The vocabulary and inverse document frequencies are fit once over the full
// corpus and never updated. Weights are raw term counts multiplied by a
// smoothed idf, ln((1+n)/(1+df)) + 1, and each vector is L2-normalized so
// that the dot product of two vectors is their cosine similarity.
package tfidf

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrEmptyCorpus is returned when Fit receives no documents.
	ErrEmptyCorpus = errors.New("tfidf: empty training corpus")

	// ErrEmptyVocabulary is returned when no document yields a non-stop-word token.
	ErrEmptyVocabulary = errors.New("tfidf: empty vocabulary, documents contain only stop words")
)

// Model is a fitted vocabulary with per-term idf weights. It is immutable
// and safe for concurrent use.
type Model struct {
	vocab map[string]int
	terms []string
	idf   []float64
	docs  int
}

// Fit learns the vocabulary and idf weights from docs.
func Fit(docs []string) (*Model, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Analyze(doc) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	m := &Model{
		vocab: make(map[string]int, len(terms)),
		terms: terms,
		idf:   make([]float64, len(terms)),
		docs:  len(docs),
	}
	for i, t := range terms {
		m.vocab[t] = i
		m.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return m, nil
}

// FitTransform fits a model on docs and returns the vector of every document.
func FitTransform(docs []string) (*Model, []Vector, error) {
	m, err := Fit(docs)
	if err != nil {
		return nil, nil, err
	}
	vectors := make([]Vector, len(docs))
	for i, d := range docs {
		vectors[i] = m.Transform(d)
	}
	return m, vectors, nil
}

// Transform vectorizes doc. Terms outside the vocabulary are ignored; a doc
// with no known terms yields an empty vector.
func (m *Model) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, tok := range Analyze(doc) {
		if idx, ok := m.vocab[tok]; ok {
			counts[idx]++
		}
	}

	v := make(Vector, 0, len(counts))
	for idx, c := range counts {
		v = append(v, Term{Index: idx, Weight: c * m.idf[idx]})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Index < v[j].Index })
	v.normalize()
	return v
}

// VocabularySize returns the number of distinct terms.
func (m *Model) VocabularySize() int {
	return len(m.terms)
}

// Documents returns the number of documents the model was fit on.
func (m *Model) Documents() int {
	return m.docs
}

// Terms returns the vocabulary in index order.
func (m *Model) Terms() []string {
	return append([]string(nil), m.terms...)
}

// IDF returns the idf weight of term and whether it is in the vocabulary.
func (m *Model) IDF(term string) (float64, bool) {
	idx, ok := m.vocab[term]
	if !ok {
		return 0, false
	}
	return m.idf[idx], true
}
