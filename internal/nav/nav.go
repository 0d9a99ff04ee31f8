// Package nav moves the map center between preset locations and zoom levels
// in response to key presses.
package nav

import (
	"go.uber.org/zap"

	"github.com/Faultbox/globedrape/pkg/geo"
)

// PresetZoom is the zoom level every preset jumps to.
const PresetZoom = 6

// Centerer is the map surface the controller drives.
type Centerer interface {
	SetCenter(c geo.Coordinate)
	Center() geo.Coordinate
}

// Preset is a named location selectable from the keyboard.
type Preset struct {
	Name   string
	Center geo.Coordinate
}

// DefaultPresets returns the built-in locations bound to keys 1-4.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "chicago", Center: geo.New(41.8827, -87.6233, PresetZoom)},
		{Name: "sydney", Center: geo.New(-33.856958, 151.210337, PresetZoom)},
		{Name: "estancia-san-pablo", Center: geo.New(-54.31188628368298, -66.8373083046737, PresetZoom)},
		{Name: "astana", Center: geo.New(51.16818999537737, 71.42305816258578, PresetZoom)},
	}
}

// Controller applies navigation commands to a Centerer. Changes take effect
// on the next frame's viewport render.
type Controller struct {
	target  Centerer
	presets []Preset
	log     *zap.Logger
}

// NewController creates a controller. With no presets the defaults are used.
func NewController(target Centerer, presets []Preset, log *zap.Logger) *Controller {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		target:  target,
		presets: presets,
		log:     log,
	}
}

// Presets returns the configured presets.
func (c *Controller) Presets() []Preset {
	return c.presets
}

// SelectPreset centers the map on preset index i (zero based). It reports
// false when no such preset exists.
func (c *Controller) SelectPreset(i int) bool {
	if i < 0 || i >= len(c.presets) {
		return false
	}
	p := c.presets[i]
	c.target.SetCenter(p.Center)
	c.log.Debug("preset selected", zap.String("name", p.Name), zap.Stringer("center", p.Center))
	return true
}

// ZoomBy changes the zoom around the current center. The zoom level is not
// clamped; the tile layer decides what it can show.
func (c *Controller) ZoomBy(delta int) {
	next := c.target.Center().ZoomedBy(delta)
	c.target.SetCenter(next)
	c.log.Debug("zoom changed", zap.Int("zoom", next.Zoom))
}

// HandleKey applies the command bound to key and reports whether the key was
// bound. Digits select presets, '-' zooms out and '=' zooms in.
func (c *Controller) HandleKey(key rune) bool {
	switch {
	case key >= '1' && key <= '9':
		return c.SelectPreset(int(key - '1'))
	case key == '-':
		c.ZoomBy(-1)
		return true
	case key == '=':
		c.ZoomBy(1)
		return true
	}
	return false
}
