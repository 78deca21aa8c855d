// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

// Package similarity builds the per-movie top-K neighbor lists from TF-IDF
// vectors.
//
// Three backends implement Index:
//
//   - bruteforce: exact, compares every pair. Cost is O(N²·d), which is the
//     scaling ceiling of the exact approach; it stays tractable up to tens of
//     thousands of movies.
//   - inverted: exact, accumulates dot products through term postings so a
//     row only visits movies that share at least one term.
//   - lsh: approximate, random-hyperplane signatures split into bands; only
//     movies colliding in some band are scored.
//
// Every backend produces lists that exclude the movie itself, hold at most K
// entries and are sorted by descending score with ties broken by ascending
// index. Rows are computed in parallel but written positionally, so output
// does not depend on scheduling.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/marquee/internal/recommend/tfidf"
)

// Backend names accepted by New.
const (
	BackendBruteForce = "bruteforce"
	BackendInverted   = "inverted"
	BackendLSH        = "lsh"
)

var (
	// ErrUnknownBackend is returned by New for an unregistered backend name.
	ErrUnknownBackend = errors.New("similarity: unknown backend")

	// ErrInvalidK is returned when K is not positive.
	ErrInvalidK = errors.New("similarity: k must be positive")
)

// Neighbor is one entry of a NeighborList.
type Neighbor struct {
	Index int
	Score float64
}

// NeighborList holds a movie's nearest neighbors, best first.
type NeighborList []Neighbor

// Index computes neighbor lists for a corpus of vectors.
type Index interface {
	// Name returns the backend name.
	Name() string

	// Build returns one NeighborList per vector, aligned by position.
	Build(ctx context.Context, vectors []tfidf.Vector, k int) ([]NeighborList, error)
}

// Options tune index construction.
type Options struct {
	// Workers bounds parallel row computation. 0 = runtime.NumCPU().
	Workers int

	// DropZero removes zero-similarity neighbors. When false, lists are
	// filled up to K with zero-score movies in ascending index order.
	DropZero bool

	// LSHBits is the signature length of the lsh backend.
	LSHBits int

	// LSHBands is the number of bands the signature is split into.
	LSHBands int

	// Seed makes the lsh hyperplanes reproducible.
	Seed int64
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// New returns the backend registered under name.
func New(name string, opts Options) (Index, error) {
	switch name {
	case BackendBruteForce, "":
		return &BruteForce{opts: opts}, nil
	case BackendInverted:
		return &Inverted{opts: opts}, nil
	case BackendLSH:
		return NewLSH(opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// buildRows runs row(i) for every i in [0,n) on a bounded worker pool.
func buildRows(ctx context.Context, n, workers int, row func(i int) NeighborList) ([]NeighborList, error) {
	out := make([]NeighborList, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = row(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build neighbor lists: %w", err)
	}
	return out, nil
}

// Validate checks the NeighborList invariants for every row.
func Validate(lists []NeighborList, k int) error {
	for i, list := range lists {
		if len(list) > k {
			return fmt.Errorf("row %d: %d neighbors exceeds k=%d", i, len(list), k)
		}
		for j, nb := range list {
			if nb.Index == i {
				return fmt.Errorf("row %d: contains itself", i)
			}
			if nb.Index < 0 || nb.Index >= len(lists) {
				return fmt.Errorf("row %d: neighbor index %d out of range", i, nb.Index)
			}
			if nb.Score < 0 || nb.Score > 1 {
				return fmt.Errorf("row %d: score %v outside [0,1]", i, nb.Score)
			}
			if j > 0 && nb.Score > list[j-1].Score {
				return fmt.Errorf("row %d: scores not sorted at position %d", i, j)
			}
		}
	}
	return nil
}
