// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package similarity

import (
	"context"

	"github.com/tomtom215/marquee/internal/recommend/tfidf"
)

// BruteForce scores every pair of movies.
type BruteForce struct {
	opts Options
}

// Name implements Index.
func (b *BruteForce) Name() string { return BackendBruteForce }

// Build implements Index. Vectors must be L2-normalized.
func (b *BruteForce) Build(ctx context.Context, vectors []tfidf.Vector, k int) ([]NeighborList, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return buildRows(ctx, len(vectors), b.opts.workers(), func(i int) NeighborList {
		sel := newSelector(i, k)
		for j := range vectors {
			if j == i {
				continue
			}
			sel.offer(Neighbor{Index: j, Score: vectors[i].Dot(vectors[j])})
		}
		return sel.result(b.opts.DropZero)
	})
}
