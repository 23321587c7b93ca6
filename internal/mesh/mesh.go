// Package mesh assembles per-material printable meshes from resolved
// voxel layers.
//
// Each populated material id yields exactly one mesh built from
// axis-aligned boxes: one box per run of consecutive same-material cells
// in a row, inset by a small shrink offset so neighboring runs never share
// geometry. Boxes are closed and vertex-disjoint, which makes every
// emitted mesh manifold by construction; Validate checks the invariant.
package mesh

import (
	"fmt"

	"github.com/chromastack/printmesh/internal/lut"
)

// Vec3 is a point in model space, in millimeters.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Triangle indexes three vertices in counter-clockwise winding (outward
// normal).
type Triangle [3]int

// Mesh is closed surface geometry tagged with the single material id it
// prints in.
type Mesh struct {
	// Material is the canonical id, or the reserved backing id −2.
	Material lut.MaterialID `json:"material"`

	// Name is the material's display name, for the external archive
	// writer's object naming.
	Name string `json:"name"`

	Vertices []Vec3     `json:"vertices"`
	Faces    []Triangle `json:"faces"`
}

// Validate checks that the mesh is a closed, consistently oriented surface
// with no degenerate faces: every directed edge must be used exactly once,
// which implies every undirected edge joins exactly two faces.
func (m *Mesh) Validate() error {
	if len(m.Faces) == 0 {
		return fmt.Errorf("mesh %s: no faces", m.Name)
	}
	type edge struct{ a, b int }
	seen := make(map[edge]int, len(m.Faces)*3)
	for fi, f := range m.Faces {
		if f[0] == f[1] || f[1] == f[2] || f[2] == f[0] {
			return fmt.Errorf("mesh %s: degenerate face %d", m.Name, fi)
		}
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a < 0 || a >= len(m.Vertices) || b < 0 || b >= len(m.Vertices) {
				return fmt.Errorf("mesh %s: face %d references missing vertex", m.Name, fi)
			}
			seen[edge{a, b}]++
		}
	}
	for e, n := range seen {
		if n != 1 {
			return fmt.Errorf("mesh %s: directed edge (%d,%d) used %d times", m.Name, e.a, e.b, n)
		}
		if seen[edge{e.b, e.a}] != 1 {
			return fmt.Errorf("mesh %s: edge (%d,%d) has no opposing face", m.Name, e.a, e.b)
		}
	}
	return nil
}

// box appends one closed cuboid spanning (x0,y0,z0)-(x1,y1,z1) to the
// mesh. The 12 triangles wind outward.
func (m *Mesh) box(x0, y0, z0, x1, y1, z1 float64) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices,
		Vec3{x0, y0, z0}, Vec3{x1, y0, z0}, Vec3{x1, y1, z0}, Vec3{x0, y1, z0},
		Vec3{x0, y0, z1}, Vec3{x1, y0, z1}, Vec3{x1, y1, z1}, Vec3{x0, y1, z1},
	)
	faces := [12]Triangle{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{1, 2, 6}, {1, 6, 5}, // right
		{2, 3, 7}, {2, 7, 6}, // back
		{3, 0, 4}, {3, 4, 7}, // left
	}
	for _, f := range faces {
		m.Faces = append(m.Faces, Triangle{f[0] + base, f[1] + base, f[2] + base})
	}
}
