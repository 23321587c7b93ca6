package classify

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/chromastack/printmesh/internal/lut"
)

// Index is an accelerated nearest-sample lookup over one table's samples.
//
// For the embeddable metrics (RGB, Lab) lookups run against a kd-tree and
// cost is sub-linear in the sample count; for CIEDE2000 the index keeps
// the exhaustive scan with precomputed conversions. Either way Nearest
// returns exactly what Exhaustive would, including tie-breaking to the
// lowest sample index.
//
// An Index is immutable after construction and safe for concurrent use.
type Index struct {
	metric  Metric
	samples []lut.Sample
	embeds  [][3]float64
	cf      []colorful.Color
	tree    *kdtree.Tree
}

// NewIndex builds the lookup structure for a sample list. The sample slice
// is retained and must not be modified afterwards.
func NewIndex(samples []lut.Sample, metric Metric) *Index {
	ix := &Index{metric: metric, samples: samples}
	if !metric.embeddable() {
		ix.cf = make([]colorful.Color, len(samples))
		for i := range samples {
			ix.cf[i] = toColorful(samples[i].Color)
		}
		return ix
	}
	ix.embeds = make([][3]float64, len(samples))
	points := make(indexPoints, len(samples))
	for i := range samples {
		ix.embeds[i] = metric.embed(samples[i].Color)
		points[i] = indexPoint{point: ix.embeds[i][:], idx: i}
	}
	if len(points) > 0 {
		ix.tree = kdtree.New(points, false)
	}
	return ix
}

// Metric returns the metric the index was built for.
func (ix *Index) Metric() Metric { return ix.metric }

// Samples returns the indexed sample list.
func (ix *Index) Samples() []lut.Sample { return ix.samples }

// Nearest classifies one color. Results are identical to
// Exhaustive(ix.Samples(), color, ix.Metric()) for every input.
func (ix *Index) Nearest(color lut.RGB) Classification {
	if len(ix.samples) == 0 {
		return Unclassified()
	}
	if ix.tree == nil {
		return ix.nearestScan(color)
	}

	q := ix.metric.embed(color)
	query := indexPoint{point: q[:], idx: -1}
	_, d2 := ix.tree.Nearest(query)

	// The tree reports some nearest sample; re-query for everything at
	// that exact distance so equally distant samples resolve to the
	// lowest index, matching the baseline.
	keeper := kdtree.NewDistKeeper(d2)
	ix.tree.NearestSet(keeper, query)
	best := -1
	for _, cd := range keeper.Heap {
		p, ok := cd.Comparable.(indexPoint)
		if !ok || cd.Dist > d2 {
			continue
		}
		if best == -1 || p.idx < best {
			best = p.idx
		}
	}
	return Classification{
		Index:    best,
		Distance: math.Sqrt(d2),
		Stack:    ix.samples[best].Stack,
	}
}

// nearestScan is the precomputed exhaustive path for metrics without an
// embedding.
func (ix *Index) nearestScan(color lut.RGB) Classification {
	c := toColorful(color)
	best := 0
	bestDist := math.Inf(1)
	for i := range ix.cf {
		if d := c.DistanceCIEDE2000(ix.cf[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return Classification{Index: best, Distance: bestDist, Stack: ix.samples[best].Stack}
}

// kd-tree plumbing in the shape gonum's spatial/kdtree expects: a point
// type carrying its sample index, a slice type implementing
// kdtree.Interface, and a plane helper for median partitioning.

type indexPoint struct {
	point kdtree.Point
	idx   int
}

func (p indexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexPoint)
	return p.point[d] - q.point[d]
}

func (p indexPoint) Dims() int { return len(p.point) }

func (p indexPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexPoint)
	return p.point.Distance(q.point)
}

type indexPoints []indexPoint

func (p indexPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexPoints) Len() int                      { return len(p) }
func (p indexPoints) Slice(s, e int) kdtree.Interface {
	return p[s:e]
}
func (p indexPoints) Pivot(d kdtree.Dim) int {
	return indexPlane{indexPoints: p, Dim: d}.Pivot()
}

type indexPlane struct {
	indexPoints
	kdtree.Dim
}

func (p indexPlane) Less(i, j int) bool {
	return p.indexPoints[i].point[p.Dim] < p.indexPoints[j].point[p.Dim]
}
func (p indexPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p indexPlane) Slice(s, e int) kdtree.SortSlicer {
	p.indexPoints = p.indexPoints[s:e]
	return p
}
func (p indexPlane) Swap(i, j int) {
	p.indexPoints[i], p.indexPoints[j] = p.indexPoints[j], p.indexPoints[i]
}
