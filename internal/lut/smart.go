package lut

import "math"

// Greedy representative-stack selection for the 6-Color and 8-Color
// calibration boards.
//
// Printing every combination is only feasible for BW (2^5 = 32) and
// 4-Color (4^5 = 1024). The larger families print a curated subset: all
// stacks are simulated by layered alpha compositing of the filament colors
// over a white backing, then a greedy pass keeps the most mutually distinct
// results until the board is full (1296 of 7776 for 6-Color, 2738 of 32768
// for 8-Color). The enumeration order, the seed set and the distance
// threshold are all fixed, so the resulting table is identical on every
// run and every platform.

// Filament describes the optical behavior of one canonical material for
// the stack simulation.
type Filament struct {
	Color RGB
	// Transmission is the transmission distance in millimeters: the
	// depth of material at which the filament becomes fully opaque.
	Transmission float64
}

// simLayerHeight is the print layer height assumed by the simulation, in
// millimeters. Per-layer opacity is layer height over one tenth of the
// transmission distance, clamped to 1.
const simLayerHeight = 0.08

// Filaments holds the simulation constants for the canonical material
// space, indexed by canonical id. The values are representative of common
// multi-color filament sets; they only shape which stacks the smart boards
// sample, not how classification behaves at runtime.
var Filaments = [NumCanonical]Filament{
	White:    {Color: RGB{248, 248, 245}, Transmission: 5.5},
	Cyan:     {Color: RGB{0, 157, 217}, Transmission: 1.8},
	Magenta:  {Color: RGB{214, 0, 141}, Transmission: 1.6},
	Yellow:   {Color: RGB{244, 211, 0}, Transmission: 2.4},
	Black:    {Color: RGB{35, 32, 30}, Transmission: 0.5},
	Red:      {Color: RGB{196, 32, 46}, Transmission: 1.4},
	DeepBlue: {Color: RGB{42, 60, 152}, Transmission: 1.2},
	Green:    {Color: RGB{26, 140, 82}, Transmission: 1.5},
}

// smartDistinctThreshold is the minimum RGB distance between two simulated
// colors for both to survive the first selection round.
const smartDistinctThreshold = 8.0

type smartCandidate struct {
	stack [StackDepth]int // bottom-to-top slot indices, enumeration order
	color [3]float64
}

// simulateStack composites the stack's filament colors bottom-to-top over
// a pure white backing.
func simulateStack(stack [StackDepth]int, mapping SlotMapping) [3]float64 {
	curr := [3]float64{255, 255, 255}
	for _, slot := range stack {
		f := Filaments[mapping.Canonical(slot)]
		alpha := 1.0
		if bd := f.Transmission / 10; bd > 0 {
			alpha = math.Min(1, simLayerHeight/bd)
		}
		curr[0] = float64(f.Color.R)*alpha + curr[0]*(1-alpha)
		curr[1] = float64(f.Color.G)*alpha + curr[1]*(1-alpha)
		curr[2] = float64(f.Color.B)*alpha + curr[2]*(1-alpha)
	}
	// Quantize like the printed board measurement would.
	for i := range curr {
		curr[i] = math.Trunc(curr[i])
	}
	return curr
}

func rgbDistance(a, b [3]float64) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// selectSmartStacks returns the target-many representative stacks for a
// mode with the given slot mapping, as canonical top-to-bottom stacks in
// board order.
func selectSmartStacks(target int, mapping SlotMapping) []Stack {
	slots := mapping.Slots()

	// Enumerate every slots^5 combination in lexicographic order with
	// the first layer varying slowest. The enumeration is bottom-to-top:
	// the first element is composited first, directly on the backing.
	count := 1
	for i := 0; i < StackDepth; i++ {
		count *= slots
	}
	candidates := make([]smartCandidate, 0, count)
	var stack [StackDepth]int
	var enumerate func(depth int)
	enumerate = func(depth int) {
		if depth == StackDepth {
			candidates = append(candidates, smartCandidate{
				stack: stack,
				color: simulateStack(stack, mapping),
			})
			return
		}
		for s := 0; s < slots; s++ {
			stack[depth] = s
			enumerate(depth + 1)
		}
	}
	enumerate(0)

	selected := make([]smartCandidate, 0, target)
	taken := make([]bool, len(candidates))

	// Seed with the pure single-material stacks so every slot's solid
	// color is always measurable.
	for s := 0; s < slots; s++ {
		idx := 0
		for i := 0; i < StackDepth; i++ {
			idx = idx*slots + s
		}
		selected = append(selected, candidates[idx])
		taken[idx] = true
	}

	// Round 1: keep candidates that are clearly distinct from everything
	// selected so far.
	for i := range candidates {
		if len(selected) >= target {
			break
		}
		if taken[i] {
			continue
		}
		distinct := true
		for _, s := range selected {
			if rgbDistance(candidates[i].color, s.color) < smartDistinctThreshold {
				distinct = false
				break
			}
		}
		if distinct {
			selected = append(selected, candidates[i])
			taken[i] = true
		}
	}

	// Round 2: fill any remaining board positions in enumeration order.
	for i := range candidates {
		if len(selected) >= target {
			break
		}
		if !taken[i] {
			selected = append(selected, candidates[i])
			taken[i] = true
		}
	}

	// Convert bottom-to-top slot stacks into canonical top-to-bottom
	// stacks.
	out := make([]Stack, len(selected))
	for i, c := range selected {
		var s Stack
		for k := 0; k < StackDepth; k++ {
			s[k] = mapping.Canonical(c.stack[StackDepth-1-k])
		}
		out[i] = s
	}
	return out
}
