package app

import (
	"image"
	"math"
	"testing"

	"github.com/Faultbox/globedrape/internal/engine/quad"
	"github.com/Faultbox/globedrape/internal/maps"
	"github.com/Faultbox/globedrape/pkg/geo"
)

type recorder struct {
	calls []string
}

type fakeSetup struct {
	rec    *recorder
	width  int
	height int
	orient quad.Orientation
}

func (f *fakeSetup) Begin(width, height int, o quad.Orientation) {
	f.rec.calls = append(f.rec.calls, "begin")
	f.width, f.height, f.orient = width, height, o
}

type fakeCanvas struct {
	rec *recorder
}

func (c *fakeCanvas) DrawTile(key maps.TileKey, img image.Image, dst image.Rectangle) {
	c.rec.calls = append(c.rec.calls, "tile")
}

func (c *fakeCanvas) Flush() {
	c.rec.calls = append(c.rec.calls, "flush")
}

type emptyTiles struct{}

func (emptyTiles) Request(maps.TileCoord) image.Image  { return nil }
func (emptyTiles) Fallback(maps.TileCoord) image.Image { return nil }
func (emptyTiles) Poll() int                           { return 0 }

func TestMapViewBeginsInTextureOrder(t *testing.T) {
	rec := &recorder{}
	setup := &fakeSetup{rec: rec}
	layer := maps.NewLayer(emptyTiles{}, &fakeCanvas{rec: rec}, maps.LayerOptions{
		Width: 512, Height: 256, MinZoom: 0, MaxZoom: 19,
	})
	layer.SetCenter(geo.New(0, 0, 1))

	view := &mapView{Layer: layer, painter: setup}
	view.Draw(0, 0, 512, 256)

	if len(rec.calls) == 0 || rec.calls[0] != "begin" {
		t.Fatalf("calls = %v, want begin first", rec.calls)
	}
	if rec.calls[len(rec.calls)-1] != "flush" {
		t.Errorf("calls = %v, want flush last", rec.calls)
	}
	if setup.orient != quad.TextureOrder {
		t.Errorf("orientation = %v, want TextureOrder", setup.orient)
	}
	if setup.width != 512 || setup.height != 256 {
		t.Errorf("target = %dx%d, want 512x256", setup.width, setup.height)
	}

	// The projector side of the view is the layer itself.
	if view.Width() != 512 || view.Height() != 256 {
		t.Errorf("view size = %dx%d", view.Width(), view.Height())
	}
}

func TestFacing(t *testing.T) {
	tests := []struct {
		name string
		c    geo.Coordinate
		want [3]float32
	}{
		{"zero", geo.New(0, 0, 6), [3]float32{0, 0, 1}},
		{"quarter turn", geo.New(90, 0, 6), [3]float32{1, 0, 0}},
		{"east", geo.New(90, 90, 6), [3]float32{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := facing(tt.c)
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("facing = %v, want %v", got, tt.want)
					break
				}
			}
			if l := got.Len(); math.Abs(float64(l)-1) > 1e-6 {
				t.Errorf("length = %v, want 1", l)
			}
		})
	}
}
