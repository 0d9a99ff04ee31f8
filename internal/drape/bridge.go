// Package drape runs the per-frame map draping pipeline: render the map
// viewport offscreen, find its geographic corners and rebuild the globe
// mesh that carries it.
package drape

import "github.com/Faultbox/globedrape/pkg/geo"

// Projector converts pixels of the rendered map viewport to geographic
// coordinates. The map's center must have been set before the first call.
type Projector interface {
	PixelsToGeo(x, y float64) geo.Coordinate
	Width() int
	Height() int
}

// worldSizer is implemented by projectors that can report how wide one copy
// of the world is in viewport pixels.
type worldSizer interface {
	WorldWidth() float64
}

// Corners looks up the four corner coordinates of the projector's viewport,
// one PixelsToGeo call per corner, using the full pixel width and height so
// the lookups bracket the whole rendered area. When the projector reports a
// world narrower than the viewport, Turn records the share of the width one
// full turn takes.
func Corners(p Projector) geo.ViewportCorners {
	w := float64(p.Width())
	h := float64(p.Height())

	c := geo.ViewportCorners{
		TopLeft:     p.PixelsToGeo(0, 0),
		TopRight:    p.PixelsToGeo(w, 0),
		BottomLeft:  p.PixelsToGeo(0, h),
		BottomRight: p.PixelsToGeo(w, h),
	}

	// Wrapped longitudes cannot tell a 350° view from a 710° one, so a
	// viewport holding the whole world says so explicitly.
	if ws, ok := p.(worldSizer); ok && w > 0 {
		if world := ws.WorldWidth(); world > 0 && world <= w {
			c.Turn = world / w
		}
	}
	return c
}
