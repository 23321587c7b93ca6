package lut

import (
	"fmt"
	"strings"
)

// MaterialID identifies one filament slot in the canonical 8-material space
// shared by every color mode, or one of the two reserved ids.
type MaterialID int8

// Canonical material ids. Every mode's internal slot indices are translated
// into this space by its SlotMapping, so downstream stages never see
// mode-local numbering.
const (
	White    MaterialID = 0
	Cyan     MaterialID = 1
	Magenta  MaterialID = 2
	Yellow   MaterialID = 3
	Black    MaterialID = 4
	Red      MaterialID = 5
	DeepBlue MaterialID = 6
	Green    MaterialID = 7

	// Empty marks a voxel or image position with no material assigned.
	Empty MaterialID = -1

	// Backing is the reserved id for a structurally separate backing
	// plate. It is distinct from every canonical id; a backing that is
	// not separated folds into White (canonical 0) instead.
	Backing MaterialID = -2
)

// NumCanonical is the size of the canonical material space.
const NumCanonical = 8

var materialNames = [NumCanonical]string{
	"White", "Cyan", "Magenta", "Yellow", "Black", "Red", "DeepBlue", "Green",
}

// Name returns the display name of a material id ("Backing" for the
// reserved backing id, "Empty" for unassigned).
func (m MaterialID) Name() string {
	switch {
	case m == Backing:
		return "Backing"
	case m == Empty:
		return "Empty"
	case m >= 0 && int(m) < NumCanonical:
		return materialNames[m]
	}
	return fmt.Sprintf("Material(%d)", int8(m))
}

// String implements fmt.Stringer so ids format readably.
func (m MaterialID) String() string { return m.Name() }

// Valid reports whether m is a canonical material id (0-7).
func (m MaterialID) Valid() bool { return m >= 0 && int(m) < NumCanonical }

// MaterialByName resolves a canonical material by its display name,
// case-insensitively. The reserved Backing and Empty names do not resolve.
func MaterialByName(name string) (MaterialID, bool) {
	for i, n := range materialNames {
		if strings.EqualFold(name, n) {
			return MaterialID(i), true
		}
	}
	return Empty, false
}

// Mode is the material-count family of a calibration LUT. It is determined
// solely by the LUT's sample count.
type Mode uint8

const (
	ModeBW Mode = iota
	Mode4Color
	Mode6Color
	Mode8Color
)

// Sample counts that uniquely determine each mode.
const (
	SamplesBW     = 32
	Samples4Color = 1024
	Samples6Color = 1296
	Samples8Color = 2738
)

func (m Mode) String() string {
	switch m {
	case ModeBW:
		return "BW"
	case Mode4Color:
		return "4-Color"
	case Mode6Color:
		return "6-Color"
	case Mode8Color:
		return "8-Color"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Slots returns the number of internal filament slots a LUT of this mode
// addresses.
func (m Mode) Slots() int {
	switch m {
	case ModeBW:
		return 2
	case Mode4Color:
		return 4
	case Mode6Color:
		return 6
	case Mode8Color:
		return 8
	}
	return 0
}

// SampleCount returns the exact sample count that identifies this mode.
func (m Mode) SampleCount() int {
	switch m {
	case ModeBW:
		return SamplesBW
	case Mode4Color:
		return Samples4Color
	case Mode6Color:
		return Samples6Color
	case Mode8Color:
		return Samples8Color
	}
	return 0
}

// ModeForSampleCount maps a sample count to its mode. It is a pure, total
// function over the four supported counts; any other count yields a
// *FormatError.
func ModeForSampleCount(n int) (Mode, error) {
	switch n {
	case SamplesBW:
		return ModeBW, nil
	case Samples4Color:
		return Mode4Color, nil
	case Samples6Color:
		return Mode6Color, nil
	case Samples8Color:
		return Mode8Color, nil
	}
	return 0, &FormatError{
		Reason: fmt.Sprintf("unsupported sample count %d (want 32, 1024, 1296 or 2738)", n),
	}
}

// FormatError reports a calibration file that cannot be used: unreadable
// data or a sample count outside the supported set. It is fatal for that
// one load operation only.
type FormatError struct {
	Source string // identifying name of the offending file, may be empty
	Reason string
	Err    error // underlying cause, may be nil
}

func (e *FormatError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("calibration %q: %s", e.Source, e.Reason)
	}
	return "calibration: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// StackDepth is the number of stacked color layers each calibration sample
// encodes. Layer 0 is the viewing surface, layer StackDepth-1 sits against
// the backing.
const StackDepth = 5

// Stack is one material-mix recipe: the canonical material id printed at
// each of the five color layers.
type Stack [StackDepth]MaterialID

// RGB is an 8-bit color sample as stored in a calibration file.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Sample pairs one calibrated color with the material-mix stack that
// produced it. Stacks are always expressed in canonical ids.
type Sample struct {
	Color RGB   `json:"color"`
	Stack Stack `json:"stack"`
}

// Table is the read interface shared by CalibrationLUT and MergedLUT that
// the classifier operates on.
type Table interface {
	// Label is the table's identifying name.
	Label() string
	// Samples returns the calibrated samples in index order. Callers
	// must not modify the returned slice.
	Samples() []Sample
}

// CalibrationLUT is one loaded calibration file: an ordered sequence of
// color samples plus the mode, recipe and slot mapping derived at load
// time. It is immutable after construction.
type CalibrationLUT struct {
	// Source is the identifying name of the file the LUT came from.
	Source string
	// Mode is the material-count family, derived from the sample count.
	Mode Mode
	// Recipe is the detected color-family variant.
	Recipe Recipe
	// Mapping translates the LUT's internal slots to canonical ids.
	Mapping SlotMapping

	samples []Sample
}

// Label implements Table.
func (l *CalibrationLUT) Label() string { return l.Source }

// Samples implements Table. Stacks are already canonical.
func (l *CalibrationLUT) Samples() []Sample { return l.samples }

// Len returns the sample count.
func (l *CalibrationLUT) Len() int { return len(l.samples) }
