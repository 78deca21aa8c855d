// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package recommend builds the movie similarity model offline and serves
// recommendations from it.
//
// # Offline build
//
// Builder turns a catalog into a Model:
//
//	records -> content strings -> TF-IDF vectors -> top-K neighbor lists
//
// The Model (corpus, neighbor lists, metadata) is persisted through a
// storage.Store and is immutable afterwards.
//
// # Serving
//
// Engine loads the latest artifact once into an immutable Snapshot held in an
// atomic pointer. Requests read the pointer without locking; a reload builds
// a new Snapshot and swaps it in, so in-flight requests finish on the
// snapshot they started with.
//
// Two independent features read a snapshot:
//
//   - Recommend ("recommended for you") filters the catalog by the genres of
//     the user's liked and watched movies, a minimum rating and a minimum
//     release year, newest first. When nothing passes, it falls back to the
//     whole catalog by rating. The neighbor lists are not consulted.
//   - Similar ("more like this") returns a movie's precomputed neighbors.
//
// Recommend is best-effort: a missing or unloadable model yields an empty
// result and a logged diagnostic, never an error to the caller.
package recommend
