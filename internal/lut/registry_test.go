package lut

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chromastack/printmesh/internal/diag"
)

// rawPayload builds a raw RGB payload with n deterministic, distinct colors.
func rawPayload(n int) []byte {
	data := make([]byte, n*3)
	for i := 0; i < n; i++ {
		data[i*3] = uint8(i)
		data[i*3+1] = uint8(i >> 8)
		data[i*3+2] = uint8(i * 7)
	}
	return data
}

func loadTestLUT(t *testing.T, name string, n int) (*CalibrationLUT, []diag.Warning) {
	t.Helper()
	reg := NewRegistry()
	l, warnings, err := reg.LoadReader(name, bytes.NewReader(rawPayload(n)))
	if err != nil {
		t.Fatalf("LoadReader(%q, %d samples): %v", name, n, err)
	}
	return l, warnings
}

func TestRegistryLoadBW(t *testing.T) {
	l, warnings := loadTestLUT(t, "bw_board.bin", SamplesBW)
	if l.Mode != ModeBW {
		t.Errorf("Mode = %s, want BW", l.Mode)
	}
	if l.Recipe != RecipeDefault {
		t.Errorf("Recipe = %s, want Default", l.Recipe)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if l.Len() != SamplesBW {
		t.Errorf("Len() = %d, want %d", l.Len(), SamplesBW)
	}
	if got := l.Samples()[31].Stack; got != (Stack{Black, Black, Black, Black, Black}) {
		t.Errorf("sample 31 stack = %v, want pure Black", got)
	}
	if got := l.Samples()[31].Color; got != (RGB{31, 0, 217}) {
		t.Errorf("sample 31 color = %v, want {31 0 217}", got)
	}
}

func TestRegistryRecipeFromName(t *testing.T) {
	l, warnings := loadTestLUT(t, "four_CMYW_board.bin", Samples4Color)
	if l.Recipe != RecipeCMYW {
		t.Errorf("Recipe = %s, want CMYW", l.Recipe)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if got := l.Samples()[1023].Stack; got != (Stack{Yellow, Yellow, Yellow, Yellow, Yellow}) {
		t.Errorf("CMYW sample 1023 stack = %v, want pure Yellow", got)
	}
}

func TestRegistryAmbiguousRecipeWarns(t *testing.T) {
	l, warnings := loadTestLUT(t, "four_color_board.bin", Samples4Color)
	if l.Recipe != RecipeDefault {
		t.Errorf("Recipe = %s, want Default", l.Recipe)
	}
	if len(warnings) != 1 || warnings[0].Code != "recipe-ambiguity" {
		t.Fatalf("warnings = %v, want one recipe-ambiguity", warnings)
	}
	// The 4-Color default resolves to the RYBW mapping.
	if got := l.Samples()[1023].Stack; got != (Stack{DeepBlue, DeepBlue, DeepBlue, DeepBlue, DeepBlue}) {
		t.Errorf("default sample 1023 stack = %v, want pure DeepBlue", got)
	}
}

func TestRegistryRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not_triplets", []byte{1, 2, 3, 4}},
		{"unsupported_count", rawPayload(33)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			_, _, err := reg.LoadReader(tt.name, bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			var ferr *FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("error %T is not *FormatError", err)
			}
			if ferr.Source != tt.name {
				t.Errorf("FormatError.Source = %q, want %q", ferr.Source, tt.name)
			}
			if len(reg.LUTs()) != 0 {
				t.Errorf("failed load left %d LUTs in the registry", len(reg.LUTs()))
			}
		})
	}
}

func TestRegistryLoadMissingFile(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Load("/nonexistent/board.npy")
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("error %T is not *FormatError", err)
	}
}
