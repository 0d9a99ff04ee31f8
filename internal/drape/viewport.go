package drape

// MapLayer is the tile layer driven by the viewport renderer.
type MapLayer interface {
	Projector
	Update()
	Draw(x, y, width, height int)
}

// ViewportRenderer advances the tile layer and rasterizes its current view
// into the offscreen buffer at the buffer's own resolution.
type ViewportRenderer struct {
	layer  MapLayer
	buffer Target
}

// NewViewportRenderer creates a renderer drawing layer into buffer.
func NewViewportRenderer(layer MapLayer, buffer Target) *ViewportRenderer {
	return &ViewportRenderer{
		layer:  layer,
		buffer: buffer,
	}
}

// Update advances tile loading, eviction and animation state.
func (v *ViewportRenderer) Update() {
	v.layer.Update()
}

// RenderToBuffer clears the offscreen buffer and draws the layer into it.
// The previously bound framebuffer and viewport are restored on return.
func (v *ViewportRenderer) RenderToBuffer(f *Frame) {
	restore := v.buffer.BindWithViewport()
	defer restore()

	v.buffer.Clear(0, 0, 0, 0)
	w, h := v.buffer.Size()
	v.layer.Draw(0, 0, int(w), int(h))

	f.Buffer = v.buffer
}

// Buffer returns the offscreen target.
func (v *ViewportRenderer) Buffer() Target {
	return v.buffer
}
