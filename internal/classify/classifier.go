package classify

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/chromastack/printmesh/internal/lut"
)

// Metric selects the color-distance function used for nearest-sample
// matching.
type Metric uint8

const (
	// MetricLab is Euclidean distance in the CIELAB space. Default:
	// perceptually much more uniform than RGB while still admitting a
	// spatial index.
	MetricLab Metric = iota

	// MetricRGB is plain Euclidean distance on 8-bit RGB components.
	MetricRGB

	// MetricCIEDE2000 is the CIEDE2000 color difference. It has no
	// Euclidean embedding, so lookups always run the exhaustive
	// baseline.
	MetricCIEDE2000
)

func (m Metric) String() string {
	switch m {
	case MetricLab:
		return "lab"
	case MetricRGB:
		return "rgb"
	case MetricCIEDE2000:
		return "ciede2000"
	}
	return fmt.Sprintf("Metric(%d)", uint8(m))
}

// embeddable reports whether the metric is Euclidean in some coordinate
// embedding, which is what the kd-tree index requires.
func (m Metric) embeddable() bool { return m == MetricLab || m == MetricRGB }

// embed maps a color into the metric's Euclidean coordinate space.
func (m Metric) embed(c lut.RGB) [3]float64 {
	switch m {
	case MetricRGB:
		return [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	default:
		l, a, b := toColorful(c).Lab()
		return [3]float64{l, a, b}
	}
}

// distance computes the metric's distance between an input color and a
// sample, given the sample's precomputed embedding (ignored for
// CIEDE2000).
func (m Metric) distance(c lut.RGB, cEmbed [3]float64, s lut.RGB, sEmbed [3]float64) float64 {
	if m == MetricCIEDE2000 {
		return toColorful(c).DistanceCIEDE2000(toColorful(s))
	}
	return math.Sqrt(sqDist(cEmbed, sEmbed))
}

func sqDist(a, b [3]float64) float64 {
	d0, d1, d2 := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return d0*d0 + d1*d1 + d2*d2
}

func toColorful(c lut.RGB) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Classification is the result of matching one input color against an
// active table.
type Classification struct {
	// Index is the nearest sample's index in the table, or -1 for a
	// position that was never classified (transparent input).
	Index int `json:"index"`

	// Distance is the metric distance to that sample.
	Distance float64 `json:"distance"`

	// Stack is the resulting material-mix recipe over canonical ids.
	// When Fallback is set this is the configured fallback recipe, not
	// the nearest sample's.
	Stack lut.Stack `json:"stack"`

	// Fallback marks a position whose best match exceeded the distance
	// threshold and was replaced by the fallback material.
	Fallback bool `json:"fallback,omitempty"`
}

// Unclassified is the Classification for positions with no input color.
func Unclassified() Classification {
	return Classification{
		Index: -1,
		Stack: lut.Stack{lut.Empty, lut.Empty, lut.Empty, lut.Empty, lut.Empty},
	}
}

// Exhaustive finds the sample minimizing the metric distance to color by
// comparing against every sample. Ties break to the lowest index, so the
// result is deterministic and independent of evaluation order.
//
// This is the correctness baseline the accelerated Index must reproduce
// exactly.
func Exhaustive(samples []lut.Sample, color lut.RGB, metric Metric) Classification {
	if len(samples) == 0 {
		return Unclassified()
	}
	cEmbed := metric.embed(color)
	best := 0
	bestDist := math.Inf(1)
	for i := range samples {
		d := metric.distance(color, cEmbed, samples[i].Color, metric.embed(samples[i].Color))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return Classification{Index: best, Distance: bestDist, Stack: samples[best].Stack}
}
