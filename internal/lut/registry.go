package lut

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chromastack/printmesh/internal/diag"
)

// Registry owns the calibration LUTs loaded for one conversion session.
//
// A Registry is an explicit value passed to the components that need it;
// there is no shared global table. It is not safe for concurrent mutation,
// but the LUTs it hands out are immutable and may be read from any
// goroutine.
type Registry struct {
	luts []*CalibrationLUT
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// LUTs returns the loaded LUTs in load order.
func (r *Registry) LUTs() []*CalibrationLUT { return r.luts }

// Load reads one calibration file from disk and registers it.
//
// The file must be a serialized numeric color array (NPY or raw 8-bit RGB
// triplets) whose sample count is one of the four supported values. An
// unreadable file or an unsupported count yields a *FormatError and leaves
// the registry unchanged; other LUTs and conversions are unaffected.
//
// The returned warnings report recovered conditions, currently only the
// recipe-ambiguity fallback when an ambiguous mode's name carries no
// recipe keyword.
func (r *Registry) Load(path string) (*CalibrationLUT, []diag.Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &FormatError{Source: filepath.Base(path), Reason: "unreadable file", Err: err}
	}
	defer f.Close()
	return r.LoadReader(filepath.Base(path), f)
}

// LoadReader is Load for an already-open source. The name is the LUT's
// identifying name and is what recipe detection scans.
func (r *Registry) LoadReader(name string, src io.Reader) (*CalibrationLUT, []diag.Warning, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, nil, &FormatError{Source: name, Reason: "unreadable data", Err: err}
	}

	colors, err := decodeColors(name, data)
	if err != nil {
		return nil, nil, err
	}

	mode, err := ModeForSampleCount(len(colors))
	if err != nil {
		ferr := err.(*FormatError)
		ferr.Source = name
		return nil, nil, ferr
	}

	var warnings []diag.Warning
	recipe, ambiguous := DetectRecipe(name, mode)
	if ambiguous {
		warnings = append(warnings, diag.Warningf("registry", "recipe-ambiguity",
			"%s: no recipe keyword in name, using %s default", name, mode))
	}

	mapping := SlotMappingFor(mode, recipe)
	stacks := stackTable(mode, mapping)
	samples := make([]Sample, len(colors))
	for i, c := range colors {
		samples[i] = Sample{Color: c, Stack: stacks[i]}
	}

	l := &CalibrationLUT{
		Source:  name,
		Mode:    mode,
		Recipe:  recipe,
		Mapping: mapping,
		samples: samples,
	}
	r.luts = append(r.luts, l)
	return l, warnings, nil
}

// decodeColors turns a calibration payload into its color sequence.
// NPY payloads are detected by magic; anything else must be raw 8-bit RGB
// triplets.
func decodeColors(name string, data []byte) ([]RGB, error) {
	if isNPY(data) {
		colors, err := parseNPY(data)
		if err != nil {
			return nil, &FormatError{Source: name, Reason: err.Error(), Err: err}
		}
		return colors, nil
	}
	if len(data) == 0 || len(data)%3 != 0 {
		return nil, &FormatError{
			Source: name,
			Reason: fmt.Sprintf("raw payload of %d bytes is not a sequence of RGB triplets", len(data)),
		}
	}
	colors := make([]RGB, len(data)/3)
	for i := range colors {
		colors[i] = RGB{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return colors, nil
}
