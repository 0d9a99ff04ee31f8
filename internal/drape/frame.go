package drape

import (
	"github.com/Faultbox/globedrape/internal/globe"
	"github.com/Faultbox/globedrape/pkg/geo"
)

// Target is the offscreen color buffer the map is rendered into.
type Target interface {
	// BindWithViewport makes the target current and returns a function
	// restoring the previous framebuffer and viewport.
	BindWithViewport() func()
	Clear(r, g, b, a float32)
	Size() (width, height int32)
	ColorTexture() uint32
}

// Frame carries the render state of one frame from stage to stage.
type Frame struct {
	// Number counts frames since the pipeline was created.
	Number uint64

	// Buffer holds the map viewport once the viewport renderer has run.
	Buffer Target

	// Corners are the geographic corners of Buffer.
	Corners geo.ViewportCorners

	// Mesh is the drape for Corners. It is the previous frame's mesh when
	// Rebuilt is false, and nil until a first valid mesh exists.
	Mesh    *globe.Mesh
	Rebuilt bool
}
