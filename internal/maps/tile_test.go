package maps

import "testing"

func TestTileCoordWrapped(t *testing.T) {
	tests := []struct {
		in   TileCoord
		want TileCoord
	}{
		{TileCoord{Zoom: 2, X: 1, Y: 1}, TileCoord{Zoom: 2, X: 1, Y: 1}},
		{TileCoord{Zoom: 2, X: 4, Y: 1}, TileCoord{Zoom: 2, X: 0, Y: 1}},
		{TileCoord{Zoom: 2, X: -1, Y: 3}, TileCoord{Zoom: 2, X: 3, Y: 3}},
		{TileCoord{Zoom: 0, X: 5, Y: 0}, TileCoord{Zoom: 0, X: 0, Y: 0}},
		{TileCoord{Zoom: 3, X: -17, Y: 0}, TileCoord{Zoom: 3, X: 7, Y: 0}},
	}

	for _, tt := range tests {
		if got := tt.in.Wrapped(); got != tt.want {
			t.Errorf("%v.Wrapped() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTileCoordIsValid(t *testing.T) {
	tests := []struct {
		c    TileCoord
		want bool
	}{
		{TileCoord{Zoom: 0, X: 0, Y: 0}, true},
		{TileCoord{Zoom: 3, X: 100, Y: 7}, true},
		{TileCoord{Zoom: 3, X: 0, Y: 8}, false},
		{TileCoord{Zoom: 3, X: 0, Y: -1}, false},
		{TileCoord{Zoom: -1, X: 0, Y: 0}, false},
	}

	for _, tt := range tests {
		if got := tt.c.IsValid(); got != tt.want {
			t.Errorf("%v.IsValid() = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestTileCoordParent(t *testing.T) {
	c := TileCoord{Zoom: 5, X: 13, Y: 22}

	p, ox, oy := c.Parent(2)
	if p != (TileCoord{Zoom: 3, X: 3, Y: 5}) {
		t.Errorf("parent = %v", p)
	}
	if ox != 1 || oy != 2 {
		t.Errorf("offset = %d,%d, want 1,2", ox, oy)
	}

	p, _, _ = c.Parent(10)
	if p.Zoom != 0 || p.X != 0 || p.Y != 0 {
		t.Errorf("parent clamped to root = %v", p)
	}

	if p, ox, oy := c.Parent(0); p != c || ox != 0 || oy != 0 {
		t.Errorf("Parent(0) = %v %d %d", p, ox, oy)
	}
}

func TestTileCoordString(t *testing.T) {
	if s := (TileCoord{Zoom: 4, X: 2, Y: 9}).String(); s != "4/2/9" {
		t.Errorf("String() = %q", s)
	}
}
