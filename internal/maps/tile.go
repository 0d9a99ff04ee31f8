// Package maps implements the slippy map: tile providers, the on-disk tile
// cache, the in-memory tile set and the Web Mercator tile layer.
package maps

import "fmt"

// TileSize is the edge length in pixels of a standard web map tile.
const TileSize = 256

// TileCoord addresses one tile of the XYZ tile pyramid.
type TileCoord struct {
	Zoom int
	X    int
	Y    int
}

// NumTiles returns the number of tiles along each axis at zoom.
func NumTiles(zoom int) int {
	if zoom < 0 {
		return 0
	}
	return 1 << uint(zoom)
}

// Wrapped returns c with X wrapped into [0, 2^zoom). Y is left untouched.
func (c TileCoord) Wrapped() TileCoord {
	n := NumTiles(c.Zoom)
	if n == 0 {
		return c
	}
	c.X %= n
	if c.X < 0 {
		c.X += n
	}
	return c
}

// IsValid reports whether c lies inside the pyramid after wrapping X.
func (c TileCoord) IsValid() bool {
	n := NumTiles(c.Zoom)
	return c.Zoom >= 0 && c.Y >= 0 && c.Y < n
}

// Parent returns the ancestor of c the given number of levels up, together
// with the sub-rectangle of the ancestor tile (in units of the ancestor's
// edge divided by 2^levels) that c covers.
func (c TileCoord) Parent(levels int) (parent TileCoord, offX, offY int) {
	if levels <= 0 {
		return c, 0, 0
	}
	if levels > c.Zoom {
		levels = c.Zoom
	}
	mask := (1 << uint(levels)) - 1
	parent = TileCoord{
		Zoom: c.Zoom - levels,
		X:    c.X >> uint(levels),
		Y:    c.Y >> uint(levels),
	}
	return parent, c.X & mask, c.Y & mask
}

// String formats the coordinate as z/x/y.
func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Zoom, c.X, c.Y)
}
