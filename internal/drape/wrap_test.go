package drape

import (
	"image"
	"math"
	"testing"

	"github.com/Faultbox/globedrape/internal/globe"
	"github.com/Faultbox/globedrape/internal/maps"
	"github.com/Faultbox/globedrape/pkg/geo"
)

type noTiles struct{}

func (noTiles) Request(maps.TileCoord) image.Image  { return nil }
func (noTiles) Fallback(maps.TileCoord) image.Image { return nil }
func (noTiles) Poll() int                           { return 0 }

func chicagoLayer(zoom int) *maps.Layer {
	layer := maps.NewLayer(noTiles{}, nil, maps.LayerOptions{
		Width: 1920, Height: 1080, MinZoom: 0, MaxZoom: 19,
	})
	layer.SetCenter(geo.New(41.8827, -87.6233, zoom))
	return layer
}

func TestCornersLowZoomWrapsWorld(t *testing.T) {
	for _, zoom := range []int{0, 1, 2} {
		layer := chicagoLayer(zoom)
		c := Corners(layer)

		world := 256 * math.Exp2(float64(zoom))
		if want := world / 1920; math.Abs(c.Turn-want) > 1e-12 {
			t.Errorf("z%d: Turn = %v, want %v", zoom, c.Turn, want)
		}

		mesh, err := globe.NewGenerator(4, 9, 100).Build(c)
		if err != nil {
			t.Fatalf("z%d: Build failed: %v", zoom, err)
		}

		// The mesh closes on itself after one turn and samples only the
		// leftmost copy of the world.
		for i := 0; i < 4; i++ {
			first, last := mesh.Positions[i*9], mesh.Positions[i*9+8]
			for k := range first {
				if math.Abs(float64(first[k]-last[k])) > 1e-3 {
					t.Fatalf("z%d row %d: mesh does not span a full turn: %v vs %v", zoom, i, first, last)
				}
			}
		}
		if got, want := mesh.TexCoords[8][0], float32(c.Turn); got != want {
			t.Errorf("z%d: last column u = %v, want %v", zoom, got, want)
		}
	}
}

func TestCornersNarrowViewportDoesNotWrap(t *testing.T) {
	c := Corners(chicagoLayer(3))
	if c.WrapsWorld() {
		t.Fatalf("z3: Turn = %v, want 0", c.Turn)
	}

	span := c.TopRight.Longitude - c.TopLeft.Longitude
	if span < 0 {
		span += 360
	}
	if math.Abs(span-337.5) > 1e-6 {
		t.Errorf("z3: longitude span = %v, want 337.5", span)
	}
}

func TestCornersWithoutWorldWidth(t *testing.T) {
	rec := &recorder{}
	layer := &fakeLayer{rec: rec, width: 1920, height: 1080, center: geo.New(0, 0, 6), span: 20}
	if c := Corners(layer); c.Turn != 0 {
		t.Errorf("Turn = %v for a projector without a world width", c.Turn)
	}
}
