// Package signal computes the derived signals of an opcode stream: windowed
// stability and entropy density over codon records, and smoothed energy and
// volatility over a simulator trajectory.
package signal

import (
	"math"
	"slices"
)

// Entropy returns the Shannon entropy in bits of the multiset items.
// An empty multiset has entropy 0.
func Entropy[T comparable](items []T) float64 {
	if len(items) == 0 {
		return 0
	}
	counts := make(map[T]int)
	for _, it := range items {
		counts[it]++
	}
	return entropyOfCounts(counts, len(items))
}

// entropyOfCounts sums in ascending count order so that results do not depend
// on map iteration order.
func entropyOfCounts[T comparable](counts map[T]int, total int) float64 {
	if total == 0 {
		return 0
	}
	cs := make([]int, 0, len(counts))
	for _, c := range counts {
		if c > 0 {
			cs = append(cs, c)
		}
	}
	slices.Sort(cs)

	h := 0.0
	n := float64(total)
	for _, c := range cs {
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	// avoid reporting -0 for a single label
	if h == 0 {
		return 0
	}
	return h
}
