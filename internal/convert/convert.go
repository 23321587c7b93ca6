// Package convert is the boundary contract of the engine: it takes a
// decoded image and an active calibration table and produces the
// per-material meshes plus the aggregate warning and failure lists that
// external consumers (control panel, archive writer) work with.
package convert

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/chromastack/printmesh/internal/classify"
	"github.com/chromastack/printmesh/internal/diag"
	"github.com/chromastack/printmesh/internal/layers"
	"github.com/chromastack/printmesh/internal/lut"
	"github.com/chromastack/printmesh/internal/mesh"
)

// Options configures one conversion request.
type Options struct {
	// TargetWidthMM is the printed model width. Zero keeps the image's
	// pixel dimensions (one pixel per voxel column).
	TargetWidthMM float64 `json:"target_width_mm,omitempty"`

	// PixelSize is the voxel edge length in millimeters, normally the
	// nozzle width. Zero means 0.4.
	PixelSize float64 `json:"pixel_size,omitempty"`

	// LayerHeight is the print layer height in millimeters. Zero means
	// 0.08.
	LayerHeight float64 `json:"layer_height,omitempty"`

	// SmoothRadius applies a Gaussian blur before classification to
	// suppress sensor noise and compression artifacts. Zero disables.
	SmoothRadius float64 `json:"smooth_radius,omitempty"`

	// MedianRadius applies a median filter after the blur, useful for
	// speckled inputs. Zero disables.
	MedianRadius float64 `json:"median_radius,omitempty"`

	// Classify carries the metric, distance threshold and fallback
	// policy.
	Classify classify.Options `json:"classify"`

	// SeparateBacking emits the backing plate as its own object tagged
	// with the reserved id −2 instead of folding it into White.
	SeparateBacking bool `json:"separate_backing"`

	// BackingLayers overrides the plate thickness in layers. Zero
	// means layers.DefaultBackingLayers.
	BackingLayers int `json:"backing_layers,omitempty"`

	// CleanupIsolated replaces isolated single-position stacks with
	// their neighborhood's dominant stack before layer resolution.
	CleanupIsolated bool `json:"cleanup_isolated"`
}

// DefaultOptions returns the conversion defaults used by the CLI.
func DefaultOptions() Options {
	return Options{
		CleanupIsolated: true,
	}
}

// Stats summarizes one conversion for logging and the control panel.
type Stats struct {
	Width                  int                 `json:"width"`
	Height                 int                 `json:"height"`
	ClassificationFailures int                 `json:"classification_failures"`
	Cleanup                layers.CleanupStats `json:"cleanup"`
}

// Result is what a conversion hands to the external archive writer.
type Result struct {
	Meshes   []*mesh.Mesh           `json:"meshes"`
	Warnings []diag.Warning         `json:"warnings"`
	Failures []mesh.MaterialFailure `json:"failures"`
	Stats    Stats                  `json:"stats"`
}

// Convert runs the full pipeline: optional smoothing, resize to the target
// width, per-pixel classification against the active table, layer
// resolution with the backing policy, and per-material mesh assembly.
//
// Only cancellation and an unusable input surface as errors here; every
// per-position and per-material condition is recovered and reported in the
// result's warning and failure lists.
func Convert(ctx context.Context, img image.Image, table lut.Table, opts Options) (*Result, error) {
	if len(table.Samples()) == 0 {
		return nil, fmt.Errorf("convert: active table %q has no samples", table.Label())
	}
	if opts.PixelSize <= 0 {
		opts.PixelSize = 0.4
	}

	if opts.TargetWidthMM > 0 {
		targetPx := int(math.Round(opts.TargetWidthMM / opts.PixelSize))
		if targetPx < 1 {
			return nil, fmt.Errorf("convert: target width %.2fmm below one pixel at %.2fmm/px",
				opts.TargetWidthMM, opts.PixelSize)
		}
		// Nearest neighbor: classification wants the palette untouched
		// by interpolation.
		img = imaging.Resize(img, targetPx, 0, imaging.NearestNeighbor)
	}
	if opts.SmoothRadius > 0 {
		img = blur.Gaussian(img, opts.SmoothRadius)
	}
	if opts.MedianRadius > 0 {
		img = effect.Median(img, opts.MedianRadius)
	}

	classified, err := classify.Image(ctx, img, table, opts.Classify)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Stats: Stats{
			Width:                  classified.Width,
			Height:                 classified.Height,
			ClassificationFailures: classified.Failures,
		},
	}
	res.Warnings = append(res.Warnings, classified.Warnings...)

	if opts.CleanupIsolated {
		res.Stats.Cleanup = layers.CleanupIsolated(classified, table.Samples())
	}

	grid, layerWarnings := layers.Resolve(classified, layers.Spec{
		SeparateBacking: opts.SeparateBacking,
		BackingLayers:   opts.BackingLayers,
	})
	res.Warnings = append(res.Warnings, layerWarnings...)

	meshes, meshWarnings, failures := mesh.Assemble(ctx, grid, mesh.Options{
		PixelSize:   opts.PixelSize,
		LayerHeight: opts.LayerHeight,
	})
	res.Meshes = meshes
	res.Warnings = append(res.Warnings, meshWarnings...)
	res.Failures = failures
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
