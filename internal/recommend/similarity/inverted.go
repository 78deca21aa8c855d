// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package similarity

import (
	"context"

	"github.com/tomtom215/marquee/internal/recommend/tfidf"
)

type posting struct {
	doc    int
	weight float64
}

// Inverted accumulates dot products through a term -> postings map. Its
// output is identical to BruteForce.
type Inverted struct {
	opts Options
}

// Name implements Index.
func (v *Inverted) Name() string { return BackendInverted }

// Build implements Index. Vectors must be L2-normalized.
func (v *Inverted) Build(ctx context.Context, vectors []tfidf.Vector, k int) ([]NeighborList, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	postings := make(map[int][]posting)
	for doc, vec := range vectors {
		for _, t := range vec {
			postings[t.Index] = append(postings[t.Index], posting{doc: doc, weight: t.Weight})
		}
	}

	return buildRows(ctx, len(vectors), v.opts.workers(), func(i int) NeighborList {
		scores := make(map[int]float64)
		for _, t := range vectors[i] {
			for _, p := range postings[t.Index] {
				if p.doc != i {
					scores[p.doc] += t.Weight * p.weight
				}
			}
		}

		sel := newSelector(i, k)
		for doc, s := range scores {
			sel.offer(Neighbor{Index: doc, Score: s})
		}

		// Pad with zero-score movies so lists match the exhaustive scan.
		if !v.opts.DropZero {
			for j := 0; j < len(vectors) && !sel.full(); j++ {
				if _, seen := scores[j]; !seen && j != i {
					sel.offer(Neighbor{Index: j})
				}
			}
		}
		return sel.result(v.opts.DropZero)
	})
}
