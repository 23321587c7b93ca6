// Package layers converts per-pixel classifications into the discrete
// per-material voxel layers that mesh assembly consumes.
//
// The result is a dense voxel grid: five color layers stacked on top of a
// configurable number of backing layers. Exactly one material id (or
// Empty) occupies each (layer, position) cell, which is what guarantees
// assembled meshes never overlap.
package layers

import (
	"github.com/chromastack/printmesh/internal/classify"
	"github.com/chromastack/printmesh/internal/diag"
	"github.com/chromastack/printmesh/internal/lut"
)

// DefaultBackingLayers is the backing plate thickness in print layers
// (1.6mm at a 0.08mm layer height).
const DefaultBackingLayers = 20

// Spec is the backing-separation policy for one resolve request.
type Spec struct {
	// SeparateBacking tags the backing layers with the reserved id −2
	// so the plate becomes a structurally separate object. When false
	// the backing folds into canonical id 0 (White).
	SeparateBacking bool `json:"separate_backing"`

	// BackingLayers is the plate thickness in layers. Zero means
	// DefaultBackingLayers.
	BackingLayers int `json:"backing_layers,omitempty"`
}

// Grid is the resolved voxel volume. Z grows upward: layers
// [0, BackingLayers) are the backing plate, the five color layers sit
// above with the viewing surface topmost.
//
// Cells are stored in one flat slice indexed by Idx, the layout also used
// for the per-layer mask views handed to mesh assembly.
type Grid struct {
	Width         int
	Height        int
	Layers        int
	BackingLayers int

	cells []lut.MaterialID
}

// NewGrid allocates a grid with the given footprint and backing thickness,
// every cell Empty. Callers that build volumes directly rather than from an
// image fill it with Set.
func NewGrid(width, height, backingLayers int) *Grid {
	g := &Grid{
		Width:         width,
		Height:        height,
		Layers:        backingLayers + lut.StackDepth,
		BackingLayers: backingLayers,
	}
	g.cells = make([]lut.MaterialID, width*height*g.Layers)
	for i := range g.cells {
		g.cells[i] = lut.Empty
	}
	return g
}

// Idx returns the flat index of (x, y, z).
func (g *Grid) Idx(x, y, z int) int { return (z*g.Height+y)*g.Width + x }

// At returns the material at (x, y, z).
func (g *Grid) At(x, y, z int) lut.MaterialID { return g.cells[g.Idx(x, y, z)] }

// Set assigns the material at (x, y, z).
func (g *Grid) Set(x, y, z int, id lut.MaterialID) { g.cells[g.Idx(x, y, z)] = id }

// Layer returns the cells of one z layer as a read-only row-major slice.
func (g *Grid) Layer(z int) []lut.MaterialID {
	n := g.Width * g.Height
	return g.cells[z*n : (z+1)*n]
}

// Materials returns the ids present anywhere in the grid, ascending (the
// reserved backing id −2 sorts first).
func (g *Grid) Materials() []lut.MaterialID {
	var present [lut.NumCanonical + 2]bool // offset by 2 to cover −2
	for _, c := range g.cells {
		if c != lut.Empty {
			present[c+2] = true
		}
	}
	var ids []lut.MaterialID
	for i, ok := range present {
		if ok {
			ids = append(ids, lut.MaterialID(i-2))
		}
	}
	return ids
}

// Resolve builds the voxel grid from an image's classifications.
//
// Solid positions receive their five-layer material stack with the viewing
// surface on top, plus the backing plate below: canonical id 0 normally,
// or the reserved id −2 when spec.SeparateBacking is set (id 0 then keeps
// only the layers above the plate). Transparent positions stay Empty at
// every layer.
func Resolve(res *classify.Result, spec Spec) (*Grid, []diag.Warning) {
	backing := spec.BackingLayers
	if backing <= 0 {
		backing = DefaultBackingLayers
	}
	backingID := lut.White
	if spec.SeparateBacking {
		backingID = lut.Backing
	}

	g := &Grid{
		Width:         res.Width,
		Height:        res.Height,
		Layers:        backing + lut.StackDepth,
		BackingLayers: backing,
	}
	g.cells = make([]lut.MaterialID, g.Width*g.Height*g.Layers)
	for i := range g.cells {
		g.cells[i] = lut.Empty
	}

	solid := 0
	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			c := res.At(x, y)
			if c.Index < 0 {
				continue
			}
			solid++
			for z := 0; z < backing; z++ {
				g.cells[g.Idx(x, y, z)] = backingID
			}
			// Stack[0] is the viewing surface: topmost layer.
			for si := 0; si < lut.StackDepth; si++ {
				z := backing + (lut.StackDepth - 1 - si)
				g.cells[g.Idx(x, y, z)] = c.Stack[si]
			}
		}
	}

	var warnings []diag.Warning
	if solid == 0 {
		warnings = append(warnings, diag.Warningf("layers", "empty-model",
			"no solid positions: every input position is transparent or unclassified"))
	}
	return g, warnings
}
