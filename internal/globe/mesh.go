// Package globe builds the sphere geometry for the base globe and for the
// map drape laid over it.
package globe

import "math"

// Mesh is an indexed triangle mesh with per-vertex positions and texture
// coordinates. Positions and TexCoords always have the same length.
type Mesh struct {
	Positions [][3]float32
	TexCoords [][2]float32
	Indices   []uint32
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Interleaved packs position and texture coordinate into one float slice
// (x, y, z, u, v per vertex) for GPU upload.
func (m *Mesh) Interleaved() []float32 {
	out := make([]float32, 0, len(m.Positions)*5)
	for i, p := range m.Positions {
		uv := m.TexCoords[i]
		out = append(out, p[0], p[1], p[2], uv[0], uv[1])
	}
	return out
}

// SphericalToCartesian converts an angle pair to a point on a sphere of the
// given radius. The first angle is the polar angle measured from +Z and the
// second the azimuth around Z:
//
//	x = r·sin(polar)·cos(azimuth)
//	y = r·sin(polar)·sin(azimuth)
//	z = r·cos(polar)
//
// The drape passes latitude as the polar angle; the base globe goes through
// the same function so both surfaces agree.
func SphericalToCartesian(polar, azimuth, radius float64) [3]float32 {
	sinP := math.Sin(polar)
	return [3]float32{
		float32(radius * sinP * math.Cos(azimuth)),
		float32(radius * sinP * math.Sin(azimuth)),
		float32(radius * math.Cos(polar)),
	}
}

// appendGridIndices emits two triangles per cell of a rows×cols vertex grid
// stored in row-major order: (v1, v2, v3) and (v2, v4, v3).
func appendGridIndices(indices []uint32, rows, cols int) []uint32 {
	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols-1; j++ {
			v1 := uint32(i*cols + j)
			v2 := uint32(i*cols + j + 1)
			v3 := uint32((i+1)*cols + j)
			v4 := uint32((i+1)*cols + j + 1)

			indices = append(indices, v1, v2, v3)
			indices = append(indices, v2, v4, v3)
		}
	}
	return indices
}
