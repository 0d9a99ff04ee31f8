package globe

import "math"

// BuildSphere generates the base globe: a UV sphere with resolution rings and
// resolution segments. The polar angle runs 0..π from +Z and the azimuth
// -π..π; texture coordinates map an equirectangular image with u following
// the azimuth and v the polar angle.
func BuildSphere(radius float64, resolution int) *Mesh {
	if resolution < 2 {
		resolution = 2
	}
	rings := resolution
	segments := resolution

	rows := rings + 1
	cols := segments + 1
	mesh := &Mesh{
		Positions: make([][3]float32, 0, rows*cols),
		TexCoords: make([][2]float32, 0, rows*cols),
		Indices:   make([]uint32, 0, 6*rings*segments),
	}

	for ring := 0; ring <= rings; ring++ {
		v := float64(ring) / float64(rings)
		polar := v * math.Pi

		for seg := 0; seg <= segments; seg++ {
			u := float64(seg) / float64(segments)
			azimuth := u*2*math.Pi - math.Pi

			mesh.Positions = append(mesh.Positions, SphericalToCartesian(polar, azimuth, radius))
			mesh.TexCoords = append(mesh.TexCoords, [2]float32{float32(u), float32(v)})
		}
	}

	mesh.Indices = appendGridIndices(mesh.Indices, rows, cols)
	return mesh
}
