package mesh

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WriteSTL encodes one mesh as binary STL. The container archive that
// combines all materials into a single multi-object file is produced by an
// external writer; STL is the per-material interchange format the CLI
// emits.
func WriteSTL(m *Mesh, w io.Writer) error {
	var header [80]byte
	copy(header[:], fmt.Sprintf("printmesh %s", m.Name))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write stl header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Faces))); err != nil {
		return fmt.Errorf("write stl face count: %w", err)
	}

	buf := make([]byte, 50) // normal + 3 vertices + attribute count
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := normal(a, b, c)
		putVec(buf[0:], n)
		putVec(buf[12:], a)
		putVec(buf[24:], b)
		putVec(buf[36:], c)
		buf[48], buf[49] = 0, 0
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write stl face: %w", err)
		}
	}
	return nil
}

func putVec(b []byte, v Vec3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}

func normal(a, b, c Vec3) Vec3 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	nx, ny, nz := uy*vz-uz*vy, uz*vx-ux*vz, ux*vy-uy*vx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return Vec3{}
	}
	return Vec3{nx / l, ny / l, nz / l}
}
