package classify

import (
	"math"
	"testing"

	"github.com/chromastack/printmesh/internal/lut"
)

// testTable is a minimal in-memory Table for classifier tests.
type testTable struct {
	label   string
	samples []lut.Sample
}

func (t *testTable) Label() string         { return t.label }
func (t *testTable) Samples() []lut.Sample { return t.samples }

func graySample(v uint8, id lut.MaterialID) lut.Sample {
	return lut.Sample{
		Color: lut.RGB{R: v, G: v, B: v},
		Stack: lut.Stack{id, id, id, id, id},
	}
}

// pseudoColors generates a deterministic spread of colors without pulling
// in math/rand ordering concerns.
func pseudoColors(n int) []lut.RGB {
	colors := make([]lut.RGB, n)
	state := uint32(2463534242)
	for i := range colors {
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		colors[i] = lut.RGB{R: uint8(state), G: uint8(state >> 8), B: uint8(state >> 16)}
	}
	return colors
}

func TestExhaustiveExactMatch(t *testing.T) {
	samples := []lut.Sample{
		graySample(0, lut.Black),
		graySample(128, lut.White),
		graySample(255, lut.White),
	}
	for _, metric := range []Metric{MetricRGB, MetricLab, MetricCIEDE2000} {
		for i, s := range samples {
			c := Exhaustive(samples, s.Color, metric)
			if c.Index != i {
				t.Errorf("%s: exact color %v matched index %d, want %d", metric, s.Color, c.Index, i)
			}
			if c.Distance != 0 {
				t.Errorf("%s: exact color %v distance = %g, want 0", metric, s.Color, c.Distance)
			}
			if c.Stack != s.Stack {
				t.Errorf("%s: exact color %v stack = %v, want %v", metric, s.Color, c.Stack, s.Stack)
			}
		}
	}
}

func TestExhaustiveTieBreaksToLowestIndex(t *testing.T) {
	// Samples 1 and 2 share a color; the tie must resolve to index 1
	// regardless of metric.
	samples := []lut.Sample{
		graySample(0, lut.Black),
		graySample(200, lut.White),
		graySample(200, lut.Yellow),
	}
	for _, metric := range []Metric{MetricRGB, MetricLab, MetricCIEDE2000} {
		c := Exhaustive(samples, lut.RGB{R: 200, G: 200, B: 200}, metric)
		if c.Index != 1 {
			t.Errorf("%s: tie resolved to index %d, want 1", metric, c.Index)
		}
	}

	// Equidistant on either side in RGB: 100 is 10 away from both 90 and
	// 110, and 90 has the lower index.
	samples = []lut.Sample{
		graySample(90, lut.White),
		graySample(110, lut.Black),
	}
	c := Exhaustive(samples, lut.RGB{R: 100, G: 100, B: 100}, MetricRGB)
	if c.Index != 0 {
		t.Errorf("equidistant tie resolved to index %d, want 0", c.Index)
	}
}

func TestExhaustiveRGBDistance(t *testing.T) {
	samples := []lut.Sample{graySample(0, lut.Black)}
	c := Exhaustive(samples, lut.RGB{R: 3, G: 4, B: 0}, MetricRGB)
	if math.Abs(c.Distance-5) > 1e-12 {
		t.Errorf("RGB distance = %g, want 5", c.Distance)
	}
}

func TestExhaustiveEmptyTable(t *testing.T) {
	c := Exhaustive(nil, lut.RGB{}, MetricLab)
	if c.Index != -1 {
		t.Errorf("empty table index = %d, want -1", c.Index)
	}
	for _, id := range c.Stack {
		if id != lut.Empty {
			t.Fatalf("empty table stack = %v, want all Empty", c.Stack)
		}
	}
}
