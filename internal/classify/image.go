package classify

import (
	"context"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chromastack/printmesh/internal/diag"
	"github.com/chromastack/printmesh/internal/lut"
)

// alphaSolid is the minimum 8-bit alpha for a pixel to be treated as part
// of the model; anything more transparent stays unclassified.
const alphaSolid = 10

// maxPositionWarnings bounds how many per-position classification-failure
// warnings are itemized before the remainder collapses into one summary.
const maxPositionWarnings = 32

// Options configures whole-image classification.
type Options struct {
	// Metric is the color-distance metric. Zero value is MetricLab.
	Metric Metric

	// MaxDistance is the classification-failure threshold: a position
	// whose best match distance exceeds it is assigned the fallback
	// material instead and recorded as a non-fatal warning. Zero
	// disables the threshold. The useful range depends on the metric
	// (roughly 0-100 for Lab and CIEDE2000, 0-441 for RGB).
	MaxDistance float64

	// FallbackID is the canonical material assigned to positions that
	// fail the threshold, as a uniform five-layer stack. Default White.
	FallbackID lut.MaterialID

	// BlockRows is the number of image rows per parallel unit. Zero
	// means 32.
	BlockRows int

	// Workers caps the parallel units in flight. Zero means GOMAXPROCS.
	Workers int
}

func (o *Options) fill() {
	if o.BlockRows <= 0 {
		o.BlockRows = 32
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
}

// Result holds per-position classifications for one image, row-major.
type Result struct {
	Width  int
	Height int

	// Classes has Width*Height entries; position (x, y) is at
	// y*Width + x. Transparent positions carry Index -1.
	Classes []Classification

	// Failures counts positions that exceeded the distance threshold.
	Failures int

	Warnings []diag.Warning
}

// At returns the classification at (x, y).
func (r *Result) At(x, y int) Classification { return r.Classes[y*r.Width+x] }

// Image classifies every pixel of img against the table's samples.
//
// Work is partitioned into disjoint row blocks processed in parallel; each
// block writes only its own region of the result, so the outcome is
// independent of scheduling order. Cancellation is honored at block
// checkpoints: in-flight blocks run to completion, pending blocks do not
// start, and ctx.Err() is returned.
//
// A position whose best match distance exceeds opts.MaxDistance is
// assigned the fallback material and recorded; the operation never aborts
// for a single bad position.
func Image(ctx context.Context, img image.Image, table lut.Table, opts Options) (*Result, error) {
	opts.fill()
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	res := &Result{
		Width:   w,
		Height:  h,
		Classes: make([]Classification, w*h),
	}
	if w == 0 || h == 0 {
		return res, nil
	}

	index := NewIndex(table.Samples(), opts.Metric)
	fallback := lut.Stack{opts.FallbackID, opts.FallbackID, opts.FallbackID, opts.FallbackID, opts.FallbackID}

	numBlocks := (h + opts.BlockRows - 1) / opts.BlockRows
	type blockReport struct {
		failures  []int // failing positions, as flat indices
		distances []float64
	}
	reports := make([]blockReport, numBlocks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for b := 0; b < numBlocks; b++ {
		// Checkpoint between parallel units.
		if err := gctx.Err(); err != nil {
			break
		}
		b := b
		g.Go(func() error {
			y0 := b * opts.BlockRows
			y1 := min(y0+opts.BlockRows, h)
			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					// NRGBA undoes alpha premultiplication, so a
					// semi-transparent pixel classifies on its true
					// color rather than a darkened one.
					px := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
					if px.A < alphaSolid {
						res.Classes[y*w+x] = Unclassified()
						continue
					}
					c := index.Nearest(lut.RGB{R: px.R, G: px.G, B: px.B})
					if opts.MaxDistance > 0 && c.Distance > opts.MaxDistance {
						reports[b].failures = append(reports[b].failures, y*w+x)
						reports[b].distances = append(reports[b].distances, c.Distance)
						c.Stack = fallback
						c.Fallback = true
					}
					res.Classes[y*w+x] = c
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The group context is canceled once Wait returns; only the caller's
	// context tells cancellation apart from normal completion.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Fold block reports into position-ordered warnings.
	for b := range reports {
		for i, pos := range reports[b].failures {
			res.Failures++
			if res.Failures <= maxPositionWarnings {
				res.Warnings = append(res.Warnings, diag.Warningf("classify", "classification-failure",
					"position (%d,%d): distance %.2f exceeds threshold %.2f, using %s",
					pos%w, pos/w, reports[b].distances[i], opts.MaxDistance, opts.FallbackID.Name()))
			}
		}
	}
	if res.Failures > maxPositionWarnings {
		res.Warnings = append(res.Warnings, diag.Warningf("classify", "classification-failure",
			"%d further positions exceeded threshold %.2f", res.Failures-maxPositionWarnings, opts.MaxDistance))
	}
	return res, nil
}
