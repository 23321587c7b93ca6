package lut

import (
	"errors"
	"fmt"
	"testing"
)

func TestModeForSampleCount(t *testing.T) {
	tests := []struct {
		count int
		want  Mode
	}{
		{32, ModeBW},
		{1024, Mode4Color},
		{1296, Mode6Color},
		{2738, Mode8Color},
	}
	for _, tt := range tests {
		mode, err := ModeForSampleCount(tt.count)
		if err != nil {
			t.Errorf("ModeForSampleCount(%d): unexpected error %v", tt.count, err)
			continue
		}
		if mode != tt.want {
			t.Errorf("ModeForSampleCount(%d) = %s, want %s", tt.count, mode, tt.want)
		}
		if mode.SampleCount() != tt.count {
			t.Errorf("%s.SampleCount() = %d, want %d", mode, mode.SampleCount(), tt.count)
		}
	}
}

func TestModeForSampleCountRejectsUnsupported(t *testing.T) {
	for _, count := range []int{0, 1, 31, 33, 1023, 1025, 1295, 2737, 2739, 7776} {
		_, err := ModeForSampleCount(count)
		if err == nil {
			t.Errorf("ModeForSampleCount(%d): expected error", count)
			continue
		}
		var ferr *FormatError
		if !errors.As(err, &ferr) {
			t.Errorf("ModeForSampleCount(%d): error %T is not *FormatError", count, err)
		}
	}
}

func TestDetectRecipe(t *testing.T) {
	tests := []struct {
		name          string
		mode          Mode
		want          Recipe
		wantAmbiguous bool
	}{
		{"calibration_rybw_1024", Mode4Color, RecipeRYBW, false},
		{"CALIBRATION_RYBW", Mode4Color, RecipeRYBW, false},
		{"MyCmywBoard", Mode4Color, RecipeCMYW, false},
		{"plain_board", Mode4Color, RecipeDefault, true},
		{"cmykwgk_set_CMYW", Mode6Color, RecipeCMYW, false},
		{"six_rybw_gk", Mode6Color, RecipeRYBW, false},
		{"six_color", Mode6Color, RecipeDefault, true},
		// RYBW takes precedence when both keywords appear.
		{"rybw_vs_cmyw", Mode4Color, RecipeRYBW, false},
		{"cmyw_then_rybw", Mode4Color, RecipeRYBW, false},
		// BW and 8-Color have one mapping and are never ambiguous.
		{"anything", ModeBW, RecipeDefault, false},
		{"rybw_named_bw", ModeBW, RecipeDefault, false},
		{"anything", Mode8Color, RecipeDefault, false},
	}
	for _, tt := range tests {
		got, ambiguous := DetectRecipe(tt.name, tt.mode)
		if got != tt.want || ambiguous != tt.wantAmbiguous {
			t.Errorf("DetectRecipe(%q, %s) = (%s, %v), want (%s, %v)",
				tt.name, tt.mode, got, ambiguous, tt.want, tt.wantAmbiguous)
		}
	}
}

func TestSlotMappingFor(t *testing.T) {
	tests := []struct {
		mode   Mode
		recipe Recipe
		want   []MaterialID
	}{
		{ModeBW, RecipeDefault, []MaterialID{White, Black}},
		{Mode4Color, RecipeDefault, []MaterialID{White, Red, Yellow, DeepBlue}},
		{Mode4Color, RecipeRYBW, []MaterialID{White, Red, Yellow, DeepBlue}},
		{Mode4Color, RecipeCMYW, []MaterialID{White, Cyan, Magenta, Yellow}},
		{Mode6Color, RecipeDefault, []MaterialID{White, Cyan, Magenta, Green, Yellow, Black}},
		{Mode6Color, RecipeCMYW, []MaterialID{White, Cyan, Magenta, Green, Yellow, Black}},
		{Mode6Color, RecipeRYBW, []MaterialID{White, Red, DeepBlue, Green, Yellow, Black}},
		{Mode8Color, RecipeDefault, []MaterialID{White, Cyan, Magenta, Yellow, Black, Red, DeepBlue, Green}},
	}
	for _, tt := range tests {
		m := SlotMappingFor(tt.mode, tt.recipe)
		if m.Slots() != len(tt.want) {
			t.Errorf("SlotMappingFor(%s, %s).Slots() = %d, want %d",
				tt.mode, tt.recipe, m.Slots(), len(tt.want))
			continue
		}
		for slot, want := range tt.want {
			if got := m.Canonical(slot); got != want {
				t.Errorf("SlotMappingFor(%s, %s).Canonical(%d) = %s, want %s",
					tt.mode, tt.recipe, slot, got, want)
			}
		}
		if got := m.Canonical(m.Slots()); got != Empty {
			t.Errorf("SlotMappingFor(%s, %s).Canonical(out of range) = %s, want Empty",
				tt.mode, tt.recipe, got)
		}
	}
}

func TestMaterialNames(t *testing.T) {
	tests := []struct {
		id   MaterialID
		want string
	}{
		{White, "White"},
		{Cyan, "Cyan"},
		{Magenta, "Magenta"},
		{Yellow, "Yellow"},
		{Black, "Black"},
		{Red, "Red"},
		{DeepBlue, "DeepBlue"},
		{Green, "Green"},
		{Empty, "Empty"},
		{Backing, "Backing"},
	}
	for _, tt := range tests {
		if got := tt.id.Name(); got != tt.want {
			t.Errorf("MaterialID(%d).Name() = %q, want %q", int8(tt.id), got, tt.want)
		}
		if got := fmt.Sprint(tt.id); got != tt.want {
			t.Errorf("Sprint(MaterialID(%d)) = %q, want %q", int8(tt.id), got, tt.want)
		}
	}
}

func TestMaterialByName(t *testing.T) {
	for id := MaterialID(0); id < NumCanonical; id++ {
		got, ok := MaterialByName(id.Name())
		if !ok || got != id {
			t.Errorf("MaterialByName(%q) = (%s, %v), want (%s, true)", id.Name(), got, ok, id)
		}
	}
	if got, ok := MaterialByName("deepblue"); !ok || got != DeepBlue {
		t.Errorf("MaterialByName(\"deepblue\") = (%s, %v), want (DeepBlue, true)", got, ok)
	}
	for _, name := range []string{"Backing", "Empty", "Chartreuse", ""} {
		if _, ok := MaterialByName(name); ok {
			t.Errorf("MaterialByName(%q): expected no match", name)
		}
	}
}
