// Package quad draws textured rectangles in pixel space. It paints map tiles
// into the offscreen buffer and the buffer preview onto the screen.
package quad

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/globedrape/internal/engine/shader"
	"github.com/Faultbox/globedrape/internal/engine/shaders"
	"github.com/Faultbox/globedrape/internal/engine/texture"
	"github.com/Faultbox/globedrape/internal/maps"
)

// Orientation selects where pixel row 0 ends up in the render target.
type Orientation int

const (
	// TopDown puts row 0 at the top of the target, for the screen.
	TopDown Orientation = iota
	// TextureOrder puts row 0 at v=0 of the target's color texture, so the
	// texture reads top-down like the image it holds.
	TextureOrder
)

type tileTexture struct {
	id   uint32
	used bool
}

// Painter draws textured quads with a pixel-space projection. Tile textures
// are kept by key between frames and released by Flush once unused.
type Painter struct {
	program *shader.Program
	vao     uint32
	vbo     uint32
	log     *zap.Logger

	projection mgl32.Mat4
	tiles      map[maps.TileKey]*tileTexture
}

// New compiles the quad program and allocates its buffers.
func New(log *zap.Logger) (*Painter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	program, err := shader.New("quad", shaders.QuadVertexShader, shaders.QuadFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("creating quad shader: %w", err)
	}

	p := &Painter{
		program:    program,
		log:        log,
		projection: mgl32.Ident4(),
		tiles:      make(map[maps.TileKey]*tileTexture),
	}

	gl.GenVertexArrays(1, &p.vao)
	gl.GenBuffers(1, &p.vbo)
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, 4*4*4, nil, gl.DYNAMIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return p, nil
}

// Projection returns the pixel-space projection for a target of the given
// size.
func Projection(width, height int, o Orientation) mgl32.Mat4 {
	w, h := float32(width), float32(height)
	if o == TextureOrder {
		return mgl32.Ortho(0, w, 0, h, -1, 1)
	}
	return mgl32.Ortho(0, w, h, 0, -1, 1)
}

// Begin sets up drawing into a target of the given size.
func (p *Painter) Begin(width, height int, o Orientation) {
	p.projection = Projection(width, height, o)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// DrawTexture draws texture id stretched over dst.
func (p *Painter) DrawTexture(id uint32, dst image.Rectangle) {
	verts := Vertices(dst)

	p.program.Use()
	p.program.SetMat4("uProjection", p.projection)
	p.program.SetInt("uTexture", 0)

	unbind := texture.Bind(0, id)
	defer unbind()

	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(verts)*4, gl.Ptr(verts[:]))
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// DrawTile uploads img on first use of key and draws it over dst.
func (p *Painter) DrawTile(key maps.TileKey, img image.Image, dst image.Rectangle) {
	t, ok := p.tiles[key]
	if !ok {
		id, err := texture.Upload(img, texture.Options{})
		if err != nil {
			p.log.Warn("tile upload failed", zap.Stringer("tile", key.Coord), zap.Error(err))
			return
		}
		t = &tileTexture{id: id}
		p.tiles[key] = t
	}
	t.used = true
	p.DrawTexture(t.id, dst)
}

// Flush deletes tile textures not drawn since the previous Flush.
func (p *Painter) Flush() {
	for key, t := range p.tiles {
		if !t.used {
			texture.Delete(t.id)
			delete(p.tiles, key)
			continue
		}
		t.used = false
	}
}

// Resident returns the number of tile textures held.
func (p *Painter) Resident() int {
	return len(p.tiles)
}

// Delete releases all GL objects.
func (p *Painter) Delete() {
	for key, t := range p.tiles {
		texture.Delete(t.id)
		delete(p.tiles, key)
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
	if p.vbo != 0 {
		gl.DeleteBuffers(1, &p.vbo)
		p.vbo = 0
	}
	p.program.Delete()
}

// Vertices returns a triangle strip covering dst as x, y, u, v quadruples.
// The top-left corner of dst samples uv (0,0).
func Vertices(dst image.Rectangle) [16]float32 {
	x0, y0 := float32(dst.Min.X), float32(dst.Min.Y)
	x1, y1 := float32(dst.Max.X), float32(dst.Max.Y)
	return [16]float32{
		x0, y0, 0, 0,
		x1, y0, 1, 0,
		x0, y1, 0, 1,
		x1, y1, 1, 1,
	}
}
