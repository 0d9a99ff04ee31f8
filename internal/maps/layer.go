package maps

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"

	"github.com/Faultbox/globedrape/pkg/geo"
)

// MaxLatitude is the latitude where the square Web Mercator world ends.
const MaxLatitude = 85.0511287798066

var projection = s2.NewMercatorProjection(180)

// TileKey identifies an image handed to a Canvas. Fallback images are keyed
// separately from the real tile they stand in for.
type TileKey struct {
	Coord    TileCoord
	Fallback bool
}

// Canvas receives tile images positioned in target pixels.
type Canvas interface {
	// DrawTile draws img into dst. The same key always carries the same
	// image, so implementations may keep uploaded copies by key.
	DrawTile(key TileKey, img image.Image, dst image.Rectangle)

	// Flush ends a frame and releases anything not drawn since the
	// previous Flush.
	Flush()
}

// Tiles supplies decoded tile images to the layer.
type Tiles interface {
	Request(c TileCoord) image.Image
	Fallback(c TileCoord) image.Image
	Poll() int
}

// Placement is a tile positioned relative to the viewport's top-left pixel.
type Placement struct {
	Coord TileCoord
	X     int
	Y     int
}

// LayerOptions configures a Layer.
type LayerOptions struct {
	Width   int
	Height  int
	MinZoom int
	MaxZoom int
}

// Layer is a Web Mercator slippy map viewport of fixed pixel size centered
// on a coordinate. It is used from the frame thread only.
type Layer struct {
	tiles  Tiles
	canvas Canvas

	width   int
	height  int
	minZoom int
	maxZoom int

	center geo.Coordinate
	zoom   int
	// world pixel of the viewport's top-left corner at zoom
	originX float64
	originY float64

	fallbacks map[TileCoord]image.Image
}

// NewLayer creates a layer drawing tiles onto canvas.
func NewLayer(tiles Tiles, canvas Canvas, opts LayerOptions) *Layer {
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = opts.MinZoom
	}
	return &Layer{
		tiles:     tiles,
		canvas:    canvas,
		width:     opts.Width,
		height:    opts.Height,
		minZoom:   opts.MinZoom,
		maxZoom:   opts.MaxZoom,
		fallbacks: make(map[TileCoord]image.Image),
	}
}

// SetCenter moves the viewport. The zoom level is clamped to the layer's
// range for rendering but reported back unchanged by Center.
func (l *Layer) SetCenter(c geo.Coordinate) {
	l.center = c
	l.zoom = clampInt(c.Zoom, l.minZoom, l.maxZoom)

	cx, cy := worldPixel(c.Latitude, c.Longitude, l.zoom)
	l.originX = cx - float64(l.width)/2
	l.originY = cy - float64(l.height)/2
}

// Center returns the coordinate last passed to SetCenter.
func (l *Layer) Center() geo.Coordinate {
	return l.center
}

// Zoom returns the zoom level tiles are drawn at.
func (l *Layer) Zoom() int {
	return l.zoom
}

// Width returns the viewport width in pixels.
func (l *Layer) Width() int {
	return l.width
}

// Height returns the viewport height in pixels.
func (l *Layer) Height() int {
	return l.height
}

// WorldWidth returns the width of one copy of the world in viewport pixels
// at the render zoom.
func (l *Layer) WorldWidth() float64 {
	return worldSize(l.zoom)
}

// PixelsToGeo converts a viewport pixel to a coordinate. Longitudes wrap
// into [-180, 180]; the zoom of the current center is carried over.
func (l *Layer) PixelsToGeo(x, y float64) geo.Coordinate {
	world := worldSize(l.zoom)
	nx := (l.originX + x) / world
	ny := (l.originY + y) / world

	ll := projection.ToLatLng(r2.Point{X: nx*360 - 180, Y: 180 - ny*360})
	return geo.New(ll.Lat.Degrees(), ll.Lng.Degrees(), l.center.Zoom)
}

// GeoToPixels converts a coordinate to a viewport pixel.
func (l *Layer) GeoToPixels(c geo.Coordinate) (x, y float64) {
	wx, wy := worldPixel(c.Latitude, c.Longitude, l.zoom)
	return wx - l.originX, wy - l.originY
}

// Visible lists the tiles covering the viewport. X wraps around the
// antimeridian; rows beyond the poles are skipped.
func (l *Layer) Visible() []Placement {
	if l.width <= 0 || l.height <= 0 {
		return nil
	}

	n := NumTiles(l.zoom)
	x0 := int(math.Floor(l.originX / TileSize))
	y0 := int(math.Floor(l.originY / TileSize))
	x1 := int(math.Floor((l.originX + float64(l.width) - 1) / TileSize))
	y1 := int(math.Floor((l.originY + float64(l.height) - 1) / TileSize))

	y0 = max(y0, 0)
	y1 = min(y1, n-1)

	out := make([]Placement, 0, (x1-x0+1)*max(y1-y0+1, 0))
	for ty := y0; ty <= y1; ty++ {
		for tx := x0; tx <= x1; tx++ {
			out = append(out, Placement{
				Coord: TileCoord{Zoom: l.zoom, X: tx, Y: ty}.Wrapped(),
				X:     int(math.Round(float64(tx*TileSize) - l.originX)),
				Y:     int(math.Round(float64(ty*TileSize) - l.originY)),
			})
		}
	}
	return out
}

// Update applies finished tile loads.
func (l *Layer) Update() {
	l.tiles.Poll()
}

// Draw renders the visible tiles with the viewport's top-left pixel at
// (x, y), scaled to width×height when that differs from the layer size.
func (l *Layer) Draw(x, y, width, height int) {
	sx := float64(width) / float64(l.width)
	sy := float64(height) / float64(l.height)

	seen := make(map[TileCoord]struct{})
	for _, p := range l.Visible() {
		img, key := l.tileImage(p.Coord)
		if img == nil {
			continue
		}
		seen[p.Coord] = struct{}{}

		dst := image.Rect(
			x+int(math.Round(float64(p.X)*sx)),
			y+int(math.Round(float64(p.Y)*sy)),
			x+int(math.Round(float64(p.X+TileSize)*sx)),
			y+int(math.Round(float64(p.Y+TileSize)*sy)),
		)
		l.canvas.DrawTile(key, img, dst)
	}

	for c := range l.fallbacks {
		if _, ok := seen[c]; !ok {
			delete(l.fallbacks, c)
		}
	}
	l.canvas.Flush()
}

func (l *Layer) tileImage(c TileCoord) (image.Image, TileKey) {
	if img := l.tiles.Request(c); img != nil {
		delete(l.fallbacks, c)
		return img, TileKey{Coord: c}
	}

	key := TileKey{Coord: c, Fallback: true}
	if img, ok := l.fallbacks[c]; ok {
		return img, key
	}
	img := l.tiles.Fallback(c)
	if img != nil {
		l.fallbacks[c] = img
	}
	return img, key
}

func worldSize(zoom int) float64 {
	return TileSize * math.Exp2(float64(zoom))
}

// worldPixel projects a coordinate to global pixel space at zoom.
func worldPixel(lat, lon float64, zoom int) (x, y float64) {
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	p := projection.FromLatLng(s2.LatLngFromDegrees(lat, lon))

	world := worldSize(zoom)
	return (p.X + 180) / 360 * world, (180 - p.Y) / 360 * world
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
