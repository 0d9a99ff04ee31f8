package globe

import (
	"math"
	"testing"
)

func TestBuildSphere(t *testing.T) {
	mesh := BuildSphere(100, 16)

	if got, want := mesh.VertexCount(), 17*17; got != want {
		t.Errorf("vertices = %d, want %d", got, want)
	}
	if got, want := mesh.TriangleCount(), 2*16*16; got != want {
		t.Errorf("triangles = %d, want %d", got, want)
	}

	// First ring sits on the +Z pole.
	top := mesh.Positions[0]
	if math.Abs(float64(top[2])-100) > 1e-4 {
		t.Errorf("first vertex z = %v, want 100", top[2])
	}
	bottom := mesh.Positions[len(mesh.Positions)-1]
	if math.Abs(float64(bottom[2])+100) > 1e-4 {
		t.Errorf("last vertex z = %v, want -100", bottom[2])
	}

	for i, uv := range mesh.TexCoords {
		if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
			t.Fatalf("uv %d out of range: %v", i, uv)
		}
	}
}

func TestBuildSphereMinimumResolution(t *testing.T) {
	mesh := BuildSphere(1, 0)
	if mesh.VertexCount() != 9 {
		t.Errorf("expected resolution clamped to 2 (9 vertices), got %d", mesh.VertexCount())
	}
}

func TestInterleaved(t *testing.T) {
	mesh := &Mesh{
		Positions: [][3]float32{{1, 2, 3}, {4, 5, 6}},
		TexCoords: [][2]float32{{0, 0}, {1, 0.5}},
	}
	got := mesh.Interleaved()
	want := []float32{1, 2, 3, 0, 0, 4, 5, 6, 1, 0.5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("interleaved = %v, want %v", got, want)
		}
	}
}
