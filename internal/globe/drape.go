package globe

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/globedrape/pkg/geo"
)

// DefaultRadiusScale lifts the drape just off the base globe so the two
// surfaces do not z-fight.
const DefaultRadiusScale = 1.001

// MinSpan is the smallest latitude or longitude span (radians) the generator
// accepts before reporting a degenerate viewport.
const MinSpan = 1e-9

var (
	// ErrInvalidResolution is returned when rows or cols is below 2.
	ErrInvalidResolution = errors.New("drape resolution must be at least 2x2")

	// ErrDegenerateViewport is returned when the viewport corners span no
	// latitude or no longitude.
	ErrDegenerateViewport = errors.New("degenerate viewport span")

	// ErrInvalidCorners is returned when a corner is NaN or infinite.
	ErrInvalidCorners = errors.New("viewport corners are not finite")
)

// Generator builds the drape mesh for a viewport. It holds no per-frame
// state: every Build starts from scratch.
type Generator struct {
	Rows        int
	Cols        int
	Radius      float64
	RadiusScale float64
}

// NewGenerator returns a generator for a rows×cols grid draped over a globe
// of the given radius.
func NewGenerator(rows, cols int, radius float64) *Generator {
	return &Generator{
		Rows:        rows,
		Cols:        cols,
		Radius:      radius,
		RadiusScale: DefaultRadiusScale,
	}
}

// DrapeRadius returns the radius the drape vertices are placed at.
func (g *Generator) DrapeRadius() float64 {
	scale := g.RadiusScale
	if scale == 0 {
		scale = DefaultRadiusScale
	}
	return g.Radius * scale
}

// Build generates the drape mesh for the given corners. Row i of the mesh
// sits at the latitude i/(rows-1) of the way from TopLeft down to
// BottomLeft, column j at the longitude j/(cols-1) of the way from TopLeft
// east to TopRight. Texture coordinate (0,0) is the TopLeft vertex. Corners
// that wrap the world get one full turn eastward from TopLeft, with u
// running from 0 to corners.Turn.
func (g *Generator) Build(corners geo.ViewportCorners) (*Mesh, error) {
	grid, err := newGrid(corners, g.Rows, g.Cols)
	if err != nil {
		return nil, err
	}

	r := g.DrapeRadius()
	count := g.Rows * g.Cols
	mesh := &Mesh{
		Positions: make([][3]float32, 0, count),
		TexCoords: make([][2]float32, 0, count),
		Indices:   make([]uint32, 0, 6*(g.Rows-1)*(g.Cols-1)),
	}

	for i := 0; i < g.Rows; i++ {
		lat := grid.latAt(i)
		v := float32(i) / float32(g.Rows-1)

		for j := 0; j < g.Cols; j++ {
			lon := grid.lonAt(j)
			u := float32(j) / float32(g.Cols-1)
			if grid.uScale != 0 {
				u *= grid.uScale
			}

			mesh.Positions = append(mesh.Positions, SphericalToCartesian(lat, lon, r))
			mesh.TexCoords = append(mesh.TexCoords, [2]float32{u, v})
		}
	}

	mesh.Indices = appendGridIndices(mesh.Indices, g.Rows, g.Cols)
	return mesh, nil
}

// grid holds the angular layout of a drape in radians.
type grid struct {
	latTop  float64
	lonLeft float64
	latStep float64
	lonStep float64
	// uScale shrinks the texture range to the part of the viewport that
	// holds one full turn; zero leaves u spanning [0, 1].
	uScale float32
}

func newGrid(c geo.ViewportCorners, rows, cols int) (grid, error) {
	if rows < 2 || cols < 2 {
		return grid{}, fmt.Errorf("%w: got %dx%d", ErrInvalidResolution, rows, cols)
	}
	if !c.IsValid() {
		return grid{}, ErrInvalidCorners
	}

	latTL := c.TopLeft.LatRadians()
	lonTL := c.TopLeft.LonRadians()
	latBL := c.BottomLeft.LatRadians()
	lonTR := c.TopRight.LonRadians()

	latSpan := math.Abs(latTL - latBL)
	lonSpan := eastwardSpan(lonTL, lonTR)

	// A viewport wider than the world wraps: drape one full turn from the
	// left edge and map it to the leftmost copy of the world.
	var uScale float32
	if c.WrapsWorld() {
		lonSpan = 2 * math.Pi
		uScale = float32(c.Turn)
	}

	if latSpan < MinSpan || lonSpan < MinSpan {
		return grid{}, fmt.Errorf("%w: lat %.3g rad, lon %.3g rad", ErrDegenerateViewport, latSpan, lonSpan)
	}

	return grid{
		latTop:  latTL,
		lonLeft: lonTL,
		latStep: latSpan / float64(rows-1),
		lonStep: lonSpan / float64(cols-1),
		uScale:  uScale,
	}, nil
}

// latAt returns the latitude of row i; rows run top to bottom.
func (g grid) latAt(i int) float64 {
	return g.latTop - float64(i)*g.latStep
}

// lonAt returns the longitude of column j; columns run west to east.
func (g grid) lonAt(j int) float64 {
	return g.lonLeft + float64(j)*g.lonStep
}

// eastwardSpan measures the longitude span from left to right going east.
// When the right edge has wrapped past the antimeridian the span continues
// through it rather than flipping the mesh.
func eastwardSpan(left, right float64) float64 {
	span := right - left
	if span < 0 {
		span += 2 * math.Pi
	}
	return span
}
