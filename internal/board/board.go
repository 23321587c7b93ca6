// Package board generates printable calibration boards.
//
// A board prints every stack of a mode's sample table as a square patch in
// a fixed grid with a one-block border. Photographing the print and
// reading patch colors back by sample index is what produces a calibration
// LUT, so the patch order here must match the stack enumeration the LUT
// loader assumes. Corner markers in the border ring fix the orientation
// and, for 8-Color boards, identify the page.
package board

import (
	"fmt"

	"github.com/chromastack/printmesh/internal/layers"
	"github.com/chromastack/printmesh/internal/lut"
)

// Default geometry, in mm.
const (
	DefaultBlockSizeMM = 5.0
	DefaultGapMM       = 0.8
	DefaultMarginMM    = 5.0
	DefaultNozzleWidth = 0.4
)

// Options configures board geometry.
type Options struct {
	// BlockSizeMM is the square patch edge length. Zero means 5.0.
	BlockSizeMM float64 `json:"block_size_mm,omitempty"`

	// GapMM separates neighboring patches. Zero means 0.8.
	GapMM float64 `json:"gap_mm,omitempty"`

	// NozzleWidth is the voxel pitch in mm; patches span
	// BlockSizeMM/NozzleWidth voxels. Zero means 0.4.
	NozzleWidth float64 `json:"nozzle_width,omitempty"`

	// BackingLayers is the plate thickness under the five color layers.
	// Zero means layers.DefaultBackingLayers.
	BackingLayers int `json:"backing_layers,omitempty"`

	// Background fills the backing plate and the gaps between patches,
	// making the board one solid slab. Default White.
	Background lut.MaterialID `json:"background"`

	// Page selects which slice of the sample table to print when the
	// table exceeds one board (8-Color spans two pages).
	Page int `json:"page,omitempty"`
}

func (o *Options) fill() {
	if o.BlockSizeMM <= 0 {
		o.BlockSizeMM = DefaultBlockSizeMM
	}
	if o.GapMM <= 0 {
		o.GapMM = DefaultGapMM
	}
	if o.NozzleWidth <= 0 {
		o.NozzleWidth = DefaultNozzleWidth
	}
	if o.BackingLayers <= 0 {
		o.BackingLayers = layers.DefaultBackingLayers
	}
}

// Layout reports the geometry of a generated board.
type Layout struct {
	// DataDim is the patch grid edge length, excluding the border.
	DataDim int `json:"data_dim"`

	// TotalDim is DataDim plus the one-block border on each side.
	TotalDim int `json:"total_dim"`

	// PixelsPerBlock and PixelsGap are the voxel spans of one patch and
	// one gap.
	PixelsPerBlock int `json:"pixels_per_block"`
	PixelsGap      int `json:"pixels_gap"`

	// Samples is the number of patches placed on this page.
	Samples int `json:"samples"`

	// Pages is how many boards the mode's full table needs.
	Pages int `json:"pages"`

	// WidthMM is the printed board edge length including margins.
	WidthMM float64 `json:"width_mm"`
}

// dataDim is the patch grid edge for each mode. BW leaves four of its 36
// cells unused; 8-Color fills two 37x37 pages.
func dataDim(mode lut.Mode) int {
	switch mode {
	case lut.ModeBW:
		return 6
	case lut.Mode4Color:
		return 32
	case lut.Mode6Color:
		return 36
	case lut.Mode8Color:
		return 37
	}
	return 0
}

// cornerIDs returns the marker materials for the TL, TR, BR, BL border
// corners. TL is always the slot-0 material so a photograph's rotation is
// unambiguous; the other three distinguish mode, recipe, and page.
func cornerIDs(mode lut.Mode, recipe lut.Recipe, page int) [4]lut.MaterialID {
	m := lut.SlotMappingFor(mode, recipe)
	switch mode {
	case lut.ModeBW:
		return [4]lut.MaterialID{lut.White, lut.Black, lut.Black, lut.Black}
	case lut.Mode4Color:
		if recipe == lut.RecipeCMYW {
			return [4]lut.MaterialID{m.Canonical(0), m.Canonical(1), m.Canonical(2), m.Canonical(3)}
		}
		return [4]lut.MaterialID{m.Canonical(0), m.Canonical(1), m.Canonical(3), m.Canonical(2)}
	case lut.Mode6Color:
		return [4]lut.MaterialID{m.Canonical(0), m.Canonical(1), m.Canonical(2), m.Canonical(4)}
	}
	// 8-Color: TR marks the page.
	mark := lut.Cyan
	if page > 0 {
		mark = lut.Magenta
	}
	return [4]lut.MaterialID{lut.White, mark, lut.Red, lut.Black}
}

// Build lays out one calibration board page as a voxel grid ready for mesh
// assembly. Patches appear in sample-index order, row-major within the
// data area, each printing its stack with the viewing surface on top.
func Build(mode lut.Mode, recipe lut.Recipe, opts Options) (*layers.Grid, Layout, error) {
	opts.fill()
	if !opts.Background.Valid() {
		return nil, Layout{}, fmt.Errorf("board: background %s is not a canonical material", opts.Background)
	}

	table := lut.StackTable(mode, recipe)
	if len(table) == 0 {
		return nil, Layout{}, fmt.Errorf("board: no stack table for mode %s", mode)
	}

	data := dataDim(mode)
	perPage := data * data
	pages := (len(table) + perPage - 1) / perPage
	if opts.Page < 0 || opts.Page >= pages {
		return nil, Layout{}, fmt.Errorf("board: page %d out of range, %s has %d page(s)", opts.Page, mode, pages)
	}
	start := opts.Page * perPage
	end := min(start+perPage, len(table))
	stacks := table[start:end]

	total := data + 2
	ppb := max(1, int(opts.BlockSizeMM/opts.NozzleWidth))
	pgap := max(1, int(opts.GapMM/opts.NozzleWidth))
	pitch := ppb + pgap
	w := total * pitch

	lay := Layout{
		DataDim:        data,
		TotalDim:       total,
		PixelsPerBlock: ppb,
		PixelsGap:      pgap,
		Samples:        len(stacks),
		Pages:          pages,
		WidthMM:        2*DefaultMarginMM + float64(total)*opts.BlockSizeMM + float64(total-1)*opts.GapMM,
	}

	g := layers.NewGrid(w, w, opts.BackingLayers)
	for z := 0; z < g.Layers; z++ {
		for y := 0; y < w; y++ {
			for x := 0; x < w; x++ {
				g.Set(x, y, z, opts.Background)
			}
		}
	}

	for i, s := range stacks {
		row := i/data + 1
		col := i%data + 1
		fillPatch(g, col*pitch, row*pitch, ppb, s)
	}

	corners := cornerIDs(mode, recipe, opts.Page)
	positions := [4][2]int{
		{0, 0},
		{total - 1, 0},
		{total - 1, total - 1},
		{0, total - 1},
	}
	for k, pos := range positions {
		id := corners[k]
		fillPatch(g, pos[0]*pitch, pos[1]*pitch, ppb, lut.Stack{id, id, id, id, id})
	}

	return g, lay, nil
}

// fillPatch writes one stack into a square patch. Stack[0] is the viewing
// surface, which is the grid's topmost layer.
func fillPatch(g *layers.Grid, x0, y0, size int, s lut.Stack) {
	for si := 0; si < lut.StackDepth; si++ {
		z := g.BackingLayers + (lut.StackDepth - 1 - si)
		for y := y0; y < y0+size; y++ {
			for x := x0; x < x0+size; x++ {
				g.Set(x, y, z, s[si])
			}
		}
	}
}
