// Package geo provides geographic value types shared by the map and globe code.
package geo

import (
	"fmt"
	"math"
)

// Coordinate is a latitude/longitude pair in degrees together with a map zoom level.
// It is a value type; methods never mutate the receiver.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Zoom      int
}

// New returns a coordinate at the given position and zoom.
func New(lat, lon float64, zoom int) Coordinate {
	return Coordinate{Latitude: lat, Longitude: lon, Zoom: zoom}
}

// WithZoom returns a copy of c at the given zoom level.
func (c Coordinate) WithZoom(zoom int) Coordinate {
	c.Zoom = zoom
	return c
}

// ZoomedBy returns a copy of c with the zoom level shifted by delta.
// The result is not clamped; providers decide which levels exist.
func (c Coordinate) ZoomedBy(delta int) Coordinate {
	c.Zoom += delta
	return c
}

// LatRadians returns the latitude in radians.
func (c Coordinate) LatRadians() float64 {
	return DegToRad(c.Latitude)
}

// LonRadians returns the longitude in radians.
func (c Coordinate) LonRadians() float64 {
	return DegToRad(c.Longitude)
}

// IsValid reports whether the coordinate holds finite numbers.
func (c Coordinate) IsValid() bool {
	return !math.IsNaN(c.Latitude) && !math.IsInf(c.Latitude, 0) &&
		!math.IsNaN(c.Longitude) && !math.IsInf(c.Longitude, 0)
}

// String formats the coordinate for logs.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f) z%d", c.Latitude, c.Longitude, c.Zoom)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
