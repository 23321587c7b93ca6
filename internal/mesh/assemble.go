package mesh

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/chromastack/printmesh/internal/diag"
	"github.com/chromastack/printmesh/internal/layers"
	"github.com/chromastack/printmesh/internal/lut"
)

// Options configures mesh assembly.
type Options struct {
	// PixelSize is the X/Y edge length of one voxel in millimeters
	// (the nozzle width for pixel-mode prints). Zero means 0.4.
	PixelSize float64

	// LayerHeight is the Z height of one voxel in millimeters. Zero
	// means 0.08.
	LayerHeight float64

	// Shrink insets each run box on every horizontal side, keeping
	// neighboring materials from fusing during printing. Zero means
	// 0.05; it must stay below half the pixel size.
	Shrink float64

	// Materials limits assembly to specific ids. Nil assembles every
	// id present in the grid. An id listed here but absent from the
	// grid yields a warning and no mesh.
	Materials []lut.MaterialID

	// Workers caps the material ids assembled in parallel. Zero means
	// GOMAXPROCS.
	Workers int
}

func (o *Options) fill() {
	if o.PixelSize <= 0 {
		o.PixelSize = 0.4
	}
	if o.LayerHeight <= 0 {
		o.LayerHeight = 0.08
	}
	if o.Shrink <= 0 {
		o.Shrink = 0.05
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
}

// MaterialFailure records one material id whose geometry generation
// failed. Other ids are unaffected.
type MaterialFailure struct {
	Material lut.MaterialID `json:"material"`
	Err      string         `json:"error"`
}

// Assemble builds one closed mesh per populated material id in the grid
// (canonical ids plus the reserved backing id).
//
// Material ids are independent units of work assembled in parallel; a
// geometry error or panic for one id is caught and recorded as a
// MaterialFailure while the remaining ids proceed, so the return is a
// best-effort partial result. An id with no assigned cells yields a
// warning and no mesh, never a zero-face placeholder. Cancellation is
// honored between material ids; meshes are returned ordered by id.
func Assemble(ctx context.Context, grid *layers.Grid, opts Options) ([]*Mesh, []diag.Warning, []MaterialFailure) {
	opts.fill()
	ids := opts.Materials
	if ids == nil {
		ids = grid.Materials()
	}

	results := make([]*Mesh, len(ids))
	failures := make([]*MaterialFailure, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			failures[i] = &MaterialFailure{Material: id, Err: err.Error()}
			continue
		}
		i, id := i, id
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failures[i] = &MaterialFailure{Material: id, Err: fmt.Sprint(r)}
				}
			}()
			m, err := buildMaterial(grid, id, opts)
			if err != nil {
				failures[i] = &MaterialFailure{Material: id, Err: err.Error()}
				return nil
			}
			results[i] = m // nil when the id has no cells
			return nil
		})
	}
	// Workers never return errors; per-id failures are collected above.
	_ = g.Wait()

	var meshes []*Mesh
	var warnings []diag.Warning
	var failed []MaterialFailure
	for i, id := range ids {
		switch {
		case failures[i] != nil:
			failed = append(failed, *failures[i])
		case results[i] == nil:
			warnings = append(warnings, diag.Warningf("mesh", "empty-material",
				"material %d (%s): no assigned positions, no mesh emitted", id, id.Name()))
		default:
			meshes = append(meshes, results[i])
		}
	}
	sort.Slice(meshes, func(i, j int) bool { return meshes[i].Material < meshes[j].Material })
	return meshes, warnings, failed
}

// buildMaterial extracts one material's geometry: per layer, per row,
// run-length boxes inset by the shrink offset. Returns (nil, nil) when the
// material occupies no cells.
func buildMaterial(grid *layers.Grid, id lut.MaterialID, opts Options) (*Mesh, error) {
	if opts.Shrink*2 >= opts.PixelSize {
		return nil, fmt.Errorf("shrink %.3f too large for pixel size %.3f", opts.Shrink, opts.PixelSize)
	}
	m := &Mesh{Material: id, Name: id.Name()}
	for z := 0; z < grid.Layers; z++ {
		zb := float64(z) * opts.LayerHeight
		zt := float64(z+1) * opts.LayerHeight
		layer := grid.Layer(z)
		for y := 0; y < grid.Height; y++ {
			row := layer[y*grid.Width : (y+1)*grid.Width]
			worldY := float64(y) * opts.PixelSize
			for x := 0; x < grid.Width; {
				if row[x] != id {
					x++
					continue
				}
				start := x
				for x < grid.Width && row[x] == id {
					x++
				}
				m.box(
					float64(start)*opts.PixelSize+opts.Shrink,
					worldY+opts.Shrink,
					zb,
					float64(x)*opts.PixelSize-opts.Shrink,
					worldY+opts.PixelSize-opts.Shrink,
					zt,
				)
			}
		}
	}
	if len(m.Vertices) == 0 {
		return nil, nil
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
