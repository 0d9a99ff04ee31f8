// Package camera provides the orbit camera used to view the globe.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// OrbitCamera circles the origin with +Z as up. Azimuth is measured around
// Z from +X, elevation from the XY plane.
type OrbitCamera struct {
	Distance  float32
	Azimuth   float32
	Elevation float32

	MinDistance float32
	MaxDistance float32

	FovY float32
	Near float32
	Far  float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// maxElevation keeps the view direction off the up axis, where LookAt
// degenerates.
const maxElevation = math.Pi/2 - 0.01

// NewOrbitCamera returns a camera framing a globe of the given radius.
func NewOrbitCamera(radius float32) *OrbitCamera {
	return &OrbitCamera{
		Distance:        radius * 3,
		Azimuth:         0,
		Elevation:       0.3,
		MinDistance:     radius * 1.05,
		MaxDistance:     radius * 20,
		FovY:            mgl32.DegToRad(45),
		Near:            radius * 0.01,
		Far:             radius * 100,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	az, el := float64(c.Azimuth), float64(c.Elevation)
	return mgl32.Vec3{
		c.Distance * float32(math.Cos(el)*math.Cos(az)),
		c.Distance * float32(math.Cos(el)*math.Sin(az)),
		c.Distance * float32(math.Sin(el)),
	}
}

// ViewMatrix returns the view matrix looking at the origin.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
}

// ProjectionMatrix returns the perspective projection for an aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(c.FovY, aspect, c.Near, c.Far)
}

// ViewProjection returns projection × view.
func (c *OrbitCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}

// HandleDrag rotates the camera by a mouse drag in pixels.
func (c *OrbitCamera) HandleDrag(dx, dy float32) {
	c.Azimuth -= dx * c.DragSensitivity
	c.Elevation += dy * c.DragSensitivity
	c.Elevation = mgl32.Clamp(c.Elevation, -maxElevation, maxElevation)
	c.Azimuth = float32(math.Remainder(float64(c.Azimuth), 2*math.Pi))
}

// HandleZoom moves the camera in for positive wheel steps and out for
// negative ones.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// Face turns the camera so it looks at the origin along dir, keeping the
// current distance.
func (c *OrbitCamera) Face(dir mgl32.Vec3) {
	l := dir.Len()
	if l == 0 {
		return
	}
	c.Azimuth = float32(math.Atan2(float64(dir.Y()), float64(dir.X())))
	c.Elevation = mgl32.Clamp(float32(math.Asin(float64(dir.Z()/l))), -maxElevation, maxElevation)
}
