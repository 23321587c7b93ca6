package naming

import (
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain_name", "plain_name"},
		{`a/b\c`, "a_b_c"},
		{`what?`, "what_"},
		{`<x>:"y"|z*`, "_x___y__z_"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMergedFilename(t *testing.T) {
	ts := time.Date(2026, 8, 30, 15, 30, 0, 0, time.Local)
	got := MergedFilename("8-Color+6-Color+BW", ts)
	want := "Merged_8-Color+6-Color+BW_20260830_153000.lutz"
	if got != want {
		t.Errorf("MergedFilename = %q, want %q", got, want)
	}
}

func TestModelFilename(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
	tests := []struct {
		base     string
		material string
		want     string
	}{
		{"portrait", "White", "portrait_White_20260102_030405.stl"},
		{"", "Black", "untitled_Black_20260102_030405.stl"},
		{"  ", "Black", "untitled_Black_20260102_030405.stl"},
		{"a/b", "Red", "a_b_Red_20260102_030405.stl"},
	}
	for _, tt := range tests {
		if got := ModelFilename(tt.base, tt.material, ts); got != tt.want {
			t.Errorf("ModelFilename(%q, %q) = %q, want %q", tt.base, tt.material, got, tt.want)
		}
	}
}

func TestParseMergedRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 30, 15, 30, 0, 0, time.Local)
	name := MergedFilename("6-Color+BW", ts)

	info := ParseMerged(name)
	if info == nil {
		t.Fatalf("ParseMerged(%q) = nil", name)
	}
	if info.Label != "6-Color+BW" {
		t.Errorf("Label = %q, want 6-Color+BW", info.Label)
	}
	if !info.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", info.Timestamp, ts)
	}
	if info.Extension != ".lutz" {
		t.Errorf("Extension = %q, want .lutz", info.Extension)
	}
}

func TestParseMergedRejectsNonStandardNames(t *testing.T) {
	for _, name := range []string{
		"",
		"portrait_White_20260102_030405.stl",
		"Merged_.lutz",
		"Merged_BW_2026_bad.lutz",
		"Merged_BW_20260830153000.lutz",
	} {
		if info := ParseMerged(name); info != nil {
			t.Errorf("ParseMerged(%q) = %+v, want nil", name, info)
		}
	}
}
