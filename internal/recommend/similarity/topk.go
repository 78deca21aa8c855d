// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package similarity

import (
	"container/heap"
	"sort"
)

// better orders neighbors by descending score, then ascending index.
func better(a, b Neighbor) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// worstFirst is a min-heap whose root is the weakest kept neighbor.
type worstFirst []Neighbor

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return better(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// selector keeps the best k neighbors offered to it.
type selector struct {
	k    int
	self int
	h    worstFirst
}

func newSelector(self, k int) *selector {
	return &selector{k: k, self: self, h: make(worstFirst, 0, k)}
}

func (s *selector) offer(nb Neighbor) {
	if nb.Index == s.self {
		return
	}
	if nb.Score > 1 {
		nb.Score = 1
	}
	if nb.Score < 0 {
		nb.Score = 0
	}
	if len(s.h) < s.k {
		heap.Push(&s.h, nb)
		return
	}
	if better(nb, s.h[0]) {
		s.h[0] = nb
		heap.Fix(&s.h, 0)
	}
}

func (s *selector) full() bool {
	return len(s.h) >= s.k
}

// result returns the kept neighbors best first, optionally without zero scores.
func (s *selector) result(dropZero bool) NeighborList {
	out := make(NeighborList, 0, len(s.h))
	for _, nb := range s.h {
		if dropZero && nb.Score <= 0 {
			continue
		}
		out = append(out, nb)
	}
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}
