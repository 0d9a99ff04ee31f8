package app

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/globedrape/internal/engine/quad"
	"github.com/Faultbox/globedrape/internal/globe"
	"github.com/Faultbox/globedrape/internal/maps"
	"github.com/Faultbox/globedrape/pkg/geo"
)

// targetSetup prepares pixel-space drawing into the bound target.
type targetSetup interface {
	Begin(width, height int, o quad.Orientation)
}

// mapView is the tile layer as the viewport renderer sees it. Drawing sets
// up the painter for the offscreen buffer so the map lands in texture order.
type mapView struct {
	*maps.Layer
	painter targetSetup
}

func (m *mapView) Draw(x, y, width, height int) {
	m.painter.Begin(width, height, quad.TextureOrder)
	m.Layer.Draw(x, y, width, height)
}

// facing returns the unit direction from the globe center toward c, using
// the same convention as the globe meshes.
func facing(c geo.Coordinate) mgl32.Vec3 {
	p := globe.SphericalToCartesian(c.LatRadians(), c.LonRadians(), 1)
	return mgl32.Vec3{p[0], p[1], p[2]}
}
