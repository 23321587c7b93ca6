package lut

import (
	"fmt"
	"strings"
)

// Recipe is the color-family variant of a LUT, used to disambiguate the
// 4-Color and 6-Color modes. It is a tagged variant with an explicit
// Default member rather than ad hoc string branching: callers detect once,
// then resolve Default through SlotMappingFor.
type Recipe uint8

const (
	// RecipeDefault selects the mode's documented default variant
	// (4-Color: RYBW, 6-Color: CMYWGK). BW and 8-Color have a single
	// canonical mapping and always use RecipeDefault.
	RecipeDefault Recipe = iota
	RecipeRYBW
	RecipeCMYW
)

func (r Recipe) String() string {
	switch r {
	case RecipeDefault:
		return "Default"
	case RecipeRYBW:
		return "RYBW"
	case RecipeCMYW:
		return "CMYW"
	}
	return fmt.Sprintf("Recipe(%d)", uint8(r))
}

// DetectRecipe scans a LUT's identifying name for a recipe keyword.
//
// The scan is case-insensitive with a fixed precedence: a name containing
// "RYBW" is RYBW, else a name containing "CMYW" is CMYW, else the mode's
// default. The second return value reports whether the result was
// ambiguous: true when an ambiguous mode (4-Color, 6-Color) carried no
// keyword and the default was applied. BW and 8-Color are never ambiguous.
func DetectRecipe(name string, mode Mode) (Recipe, bool) {
	if mode == ModeBW || mode == Mode8Color {
		return RecipeDefault, false
	}
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "RYBW"):
		return RecipeRYBW, false
	case strings.Contains(upper, "CMYW"):
		return RecipeCMYW, false
	}
	return RecipeDefault, true
}

// SlotMapping is a bijection from a LUT's internal slot index to a
// canonical material id. Entries beyond the mode's slot count are Empty.
type SlotMapping struct {
	ids  [NumCanonical]MaterialID
	used int
}

// Slots returns the number of internal slots the mapping covers.
func (s SlotMapping) Slots() int { return s.used }

// Canonical returns the canonical id for an internal slot index, or Empty
// if the slot is out of range.
func (s SlotMapping) Canonical(slot int) MaterialID {
	if slot < 0 || slot >= s.used {
		return Empty
	}
	return s.ids[slot]
}

func newMapping(ids ...MaterialID) SlotMapping {
	var s SlotMapping
	for i := range s.ids {
		s.ids[i] = Empty
	}
	copy(s.ids[:], ids)
	s.used = len(ids)
	return s
}

// The six static slot-mapping tables. These are fixed constant data: one
// table per (mode, recipe) pair, never derived at runtime, so every build
// of the engine resolves identical canonical ids.
var (
	bwMapping = newMapping(White, Black)

	rybwMapping = newMapping(White, Red, Yellow, DeepBlue)
	cmywMapping = newMapping(White, Cyan, Magenta, Yellow)

	cmywgkMapping = newMapping(White, Cyan, Magenta, Green, Yellow, Black)
	rybwgkMapping = newMapping(White, Red, DeepBlue, Green, Yellow, Black)

	eightMapping = newMapping(White, Cyan, Magenta, Yellow, Black, Red, DeepBlue, Green)
)

// SlotMappingFor resolves the static slot-mapping table for a (mode,
// recipe) pair. RecipeDefault resolves to the mode's documented default
// (4-Color: RYBW, 6-Color: CMYWGK). The recipe argument is ignored for BW
// and 8-Color, which each have a single canonical mapping.
func SlotMappingFor(mode Mode, recipe Recipe) SlotMapping {
	switch mode {
	case ModeBW:
		return bwMapping
	case Mode4Color:
		if recipe == RecipeCMYW {
			return cmywMapping
		}
		return rybwMapping
	case Mode6Color:
		if recipe == RecipeRYBW {
			return rybwgkMapping
		}
		return cmywgkMapping
	case Mode8Color:
		return eightMapping
	}
	return SlotMapping{}
}
