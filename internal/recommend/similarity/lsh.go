// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package similarity

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/tomtom215/marquee/internal/recommend/tfidf"
)

// LSH is an approximate backend using random-hyperplane signatures. Two
// movies are compared only if their signatures agree on every bit of at
// least one band. Candidates are scored exactly, so reported scores are true
// cosine similarities; only recall is approximate.
type LSH struct {
	opts    Options
	bits    int
	bands   int
	perBand int
}

// NewLSH validates the signature layout. Defaults are 64 bits in 16 bands.
func NewLSH(opts Options) (*LSH, error) {
	bits, bands := opts.LSHBits, opts.LSHBands
	if bits <= 0 {
		bits = 64
	}
	if bands <= 0 {
		bands = 16
	}
	if bits > 64 {
		return nil, fmt.Errorf("similarity: lsh bits %d exceeds 64", bits)
	}
	if bits%bands != 0 {
		return nil, fmt.Errorf("similarity: lsh bits %d not divisible by bands %d", bits, bands)
	}
	return &LSH{opts: opts, bits: bits, bands: bands, perBand: bits / bands}, nil
}

// Name implements Index.
func (l *LSH) Name() string { return BackendLSH }

type bucketKey struct {
	band int
	sig  uint64
}

// Build implements Index. Vectors must be L2-normalized.
func (l *LSH) Build(ctx context.Context, vectors []tfidf.Vector, k int) ([]NeighborList, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	planes := l.hyperplanes(dimensions(vectors))
	sigs := make([]uint64, len(vectors))
	for i, v := range vectors {
		sigs[i] = l.signature(planes, v)
	}

	buckets := make(map[bucketKey][]int)
	for i := range vectors {
		if len(vectors[i]) == 0 {
			continue
		}
		for b := 0; b < l.bands; b++ {
			key := bucketKey{band: b, sig: l.bandBits(sigs[i], b)}
			buckets[key] = append(buckets[key], i)
		}
	}

	return buildRows(ctx, len(vectors), l.opts.workers(), func(i int) NeighborList {
		sel := newSelector(i, k)
		if len(vectors[i]) == 0 {
			return sel.result(true)
		}
		seen := map[int]struct{}{i: {}}
		for b := 0; b < l.bands; b++ {
			for _, j := range buckets[bucketKey{band: b, sig: l.bandBits(sigs[i], b)}] {
				if _, ok := seen[j]; ok {
					continue
				}
				seen[j] = struct{}{}
				sel.offer(Neighbor{Index: j, Score: vectors[i].Dot(vectors[j])})
			}
		}
		return sel.result(l.opts.DropZero)
	})
}

// hyperplanes returns bits Gaussian vectors over dim coordinates, laid out
// plane-major.
func (l *LSH) hyperplanes(dim int) []float64 {
	rng := rand.New(rand.NewSource(l.opts.Seed)) //nolint:gosec // reproducible projections, not security sensitive
	planes := make([]float64, l.bits*dim)
	for i := range planes {
		planes[i] = rng.NormFloat64()
	}
	return planes
}

func (l *LSH) signature(planes []float64, v tfidf.Vector) uint64 {
	dim := len(planes) / l.bits
	var sig uint64
	for b := 0; b < l.bits; b++ {
		row := planes[b*dim : (b+1)*dim]
		var dot float64
		for _, t := range v {
			dot += row[t.Index] * t.Weight
		}
		if dot >= 0 {
			sig |= 1 << uint(b)
		}
	}
	return sig
}

func (l *LSH) bandBits(sig uint64, band int) uint64 {
	shift := uint(band * l.perBand)
	mask := uint64(1)<<uint(l.perBand) - 1
	if l.perBand == 64 {
		mask = ^uint64(0)
	}
	return (sig >> shift) & mask
}

// dimensions returns one past the largest term index in vectors.
func dimensions(vectors []tfidf.Vector) int {
	dim := 0
	for _, v := range vectors {
		if n := len(v); n > 0 && v[n-1].Index+1 > dim {
			dim = v[n-1].Index + 1
		}
	}
	return dim
}

// Recall reports the mean fraction of exact neighbors found by approx,
// row by row. It is used to tune the lsh layout against an exact build.
func Recall(exact, approx []NeighborList) float64 {
	if len(exact) == 0 || len(exact) != len(approx) {
		return 0
	}
	var total float64
	var rows int
	for i := range exact {
		if len(exact[i]) == 0 {
			continue
		}
		want := make(map[int]struct{}, len(exact[i]))
		for _, nb := range exact[i] {
			want[nb.Index] = struct{}{}
		}
		hit := 0
		for _, nb := range approx[i] {
			if _, ok := want[nb.Index]; ok {
				hit++
			}
		}
		total += float64(hit) / float64(len(exact[i]))
		rows++
	}
	if rows == 0 {
		return 1
	}
	return total / float64(rows)
}
