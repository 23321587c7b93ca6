package lut

import "sync"

// Stack tables: the material-mix recipe behind each sample index of a
// calibration file.
//
// Calibration boards are printed from a deterministic enumeration of layer
// stacks, so a LUT file only stores colors; the stack for sample i is
// reconstructed here. BW and 4-Color boards enumerate every combination as
// base-2/base-4 digit expansions of the index. 6-Color and 8-Color boards
// print a representative subset chosen by the greedy selection in smart.go.
//
// All returned stacks use the top-to-bottom convention (Stack[0] is the
// viewing surface) and are already remapped to canonical ids.

// indexStack expands sample index i into its slot-digit stack.
// The most significant digit is the viewing surface.
func indexStack(i, base int) [StackDepth]int {
	var digits [StackDepth]int
	for k := StackDepth - 1; k >= 0; k-- {
		digits[k] = i % base
		i /= base
	}
	return digits
}

func remapStack(slots [StackDepth]int, mapping SlotMapping) Stack {
	var s Stack
	for k, slot := range slots {
		s[k] = mapping.Canonical(slot)
	}
	return s
}

var stackCache struct {
	sync.Mutex
	tables map[SlotMapping][]Stack
}

// StackTable returns the canonical stack printed for each sample index of
// a mode, in index order. Board generation and LUT loading share this
// enumeration, which is what keeps sample indices meaningful across a
// print-photograph-extract round trip.
func StackTable(mode Mode, recipe Recipe) []Stack {
	return stackTable(mode, SlotMappingFor(mode, recipe))
}

// stackTable returns the canonical stack for every sample index of a mode,
// in index order. Tables are deterministic for a given (mode, mapping) pair
// and cached after first construction.
func stackTable(mode Mode, mapping SlotMapping) []Stack {
	stackCache.Lock()
	defer stackCache.Unlock()
	if stackCache.tables == nil {
		stackCache.tables = make(map[SlotMapping][]Stack)
	}
	if t, ok := stackCache.tables[mapping]; ok {
		return t
	}

	var table []Stack
	switch mode {
	case ModeBW:
		table = make([]Stack, SamplesBW)
		for i := range table {
			table[i] = remapStack(indexStack(i, 2), mapping)
		}
	case Mode4Color:
		table = make([]Stack, Samples4Color)
		for i := range table {
			table[i] = remapStack(indexStack(i, 4), mapping)
		}
	case Mode6Color:
		table = selectSmartStacks(Samples6Color, mapping)
	case Mode8Color:
		table = selectSmartStacks(Samples8Color, mapping)
	}

	stackCache.tables[mapping] = table
	return table
}
