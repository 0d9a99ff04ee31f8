package geo

import "math"

// ViewportCorners holds the geographic positions of the four pixel corners
// of a rendered map viewport.
type ViewportCorners struct {
	TopLeft     Coordinate
	TopRight    Coordinate
	BottomLeft  Coordinate
	BottomRight Coordinate

	// Turn is the fraction of the viewport width, from the left edge, that
	// one full turn of longitude occupies. It is zero while the viewport is
	// narrower than the world.
	Turn float64
}

// All returns the corners in TL, TR, BL, BR order.
func (v ViewportCorners) All() [4]Coordinate {
	return [4]Coordinate{v.TopLeft, v.TopRight, v.BottomLeft, v.BottomRight}
}

// WrapsWorld reports whether the viewport shows at least a full turn of
// longitude.
func (v ViewportCorners) WrapsWorld() bool {
	return v.Turn > 0
}

// IsValid reports whether every corner is finite and Turn lies in [0, 1].
func (v ViewportCorners) IsValid() bool {
	if math.IsNaN(v.Turn) || v.Turn < 0 || v.Turn > 1 {
		return false
	}
	for _, c := range v.All() {
		if !c.IsValid() {
			return false
		}
	}
	return true
}
