package layers

import (
	"github.com/chromastack/printmesh/internal/classify"
	"github.com/chromastack/printmesh/internal/lut"
)

// Isolated-pixel cleanup. A position whose five-layer stack differs from
// every one of its 8 neighbors forces a pointless material change when
// printed; replacing such positions with the neighborhood's most frequent
// stack removes the churn without visibly altering the image.

var neighborhood = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// CleanupStats reports what one cleanup pass did.
type CleanupStats struct {
	Isolated int `json:"isolated"`
	Replaced int `json:"replaced"`
}

// CleanupIsolated detects isolated positions in a classified image and
// replaces each with its neighborhood's most frequent stack, in a single
// pass computed from a snapshot of the input (replacements never cascade).
//
// Only replacements that correspond to an actual table sample are applied,
// so the classification's index, color and stack stay consistent; ties in
// the neighborhood count break to the stack seen first in a fixed scan
// order. Unclassified positions participate as neighbors but are never
// replaced.
func CleanupIsolated(res *classify.Result, samples []lut.Sample) CleanupStats {
	var stats CleanupStats
	w, h := res.Width, res.Height
	if w*h <= 1 {
		return stats
	}

	// Snapshot the stacks so detection and replacement see the same
	// state.
	before := make([]lut.Stack, w*h)
	for i := range res.Classes {
		before[i] = res.Classes[i].Stack
	}

	// First sample index for each distinct stack, for re-linking
	// replaced positions to a real table entry.
	byStack := make(map[lut.Stack]int, len(samples))
	for i := range samples {
		if _, ok := byStack[samples[i].Stack]; !ok {
			byStack[samples[i].Stack] = i
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pos := y*w + x
			if res.Classes[pos].Index < 0 {
				continue
			}
			self := before[pos]

			// Ordered neighbor stacks within bounds.
			var stacks [8]lut.Stack
			n := 0
			isolated := true
			for _, d := range neighborhood {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				s := before[ny*w+nx]
				stacks[n] = s
				n++
				if s == self {
					isolated = false
				}
			}
			if n == 0 || !isolated {
				continue
			}
			stats.Isolated++

			// Most frequent neighbor stack; first seen wins ties.
			bestCount := 0
			var best lut.Stack
			for i := 0; i < n; i++ {
				count := 0
				for j := 0; j < n; j++ {
					if stacks[j] == stacks[i] {
						count++
					}
				}
				if count > bestCount {
					bestCount = count
					best = stacks[i]
				}
			}

			idx, ok := byStack[best]
			if !ok {
				continue
			}
			res.Classes[pos].Index = idx
			res.Classes[pos].Stack = best
			stats.Replaced++
		}
	}
	return stats
}
