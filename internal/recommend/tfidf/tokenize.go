// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package tfidf

import (
	_ "embed"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed stopwords_en.txt
var stopWordsEN string

// englishStopWords is parsed once from the embedded list.
var englishStopWords = parseStopWords(stopWordsEN)

func parseStopWords(raw string) map[string]struct{} {
	fields := strings.Fields(raw)
	set := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		set[w] = struct{}{}
	}
	return set
}

// IsStopWord reports whether w is in the English stop-word list.
func IsStopWord(w string) bool {
	_, ok := englishStopWords[w]
	return ok
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize lowercases s and returns every run of two or more word characters
// (letters, digits, underscore), in order.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	tokens := make([]string, 0, len(s)/5)

	start := -1
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = appendToken(tokens, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = appendToken(tokens, s[start:])
	}
	return tokens
}

func appendToken(tokens []string, tok string) []string {
	if utf8.RuneCountInString(tok) < 2 {
		return tokens
	}
	return append(tokens, tok)
}

// Analyze tokenizes s and drops stop words.
func Analyze(s string) []string {
	tokens := Tokenize(s)
	out := tokens[:0]
	for _, t := range tokens {
		if !IsStopWord(t) {
			out = append(out, t)
		}
	}
	return out
}
