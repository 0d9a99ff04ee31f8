// Package scene composes the on-screen frame: the offscreen map preview, the
// textured base globe and the map drape laid over it.
package scene

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/globedrape/internal/drape"
	"github.com/Faultbox/globedrape/internal/engine/mesh"
	"github.com/Faultbox/globedrape/internal/engine/quad"
	"github.com/Faultbox/globedrape/internal/engine/shader"
	"github.com/Faultbox/globedrape/internal/engine/shaders"
	"github.com/Faultbox/globedrape/internal/engine/texture"
	"github.com/Faultbox/globedrape/internal/globe"
)

// Config contains composer options.
type Config struct {
	PreviewWidth  int
	PreviewHeight int

	GlobeRadius     float64
	GlobeResolution int

	// EarthTexture is an equirectangular world image. A flat ocean color is
	// used when it is empty or cannot be loaded.
	EarthTexture string

	DrapeOpacity float32
}

// DefaultConfig returns the default composer configuration.
func DefaultConfig() Config {
	return Config{
		PreviewWidth:    192,
		PreviewHeight:   108,
		GlobeRadius:     100,
		GlobeResolution: 1000,
		DrapeOpacity:    1,
	}
}

// Screen is the default framebuffer the frame is composed onto.
type Screen interface {
	Begin()
	Size() (width, height int)
	Aspect() float32
}

// Viewer supplies the view-projection for the 3D passes.
type Viewer interface {
	ViewProjection(aspect float32) mgl32.Mat4
}

// oceanColor fills the globe when no world texture is available.
var oceanColor = color.RGBA{R: 24, G: 58, B: 94, A: 255}

// Composer draws finished frames. It implements drape.Composer.
type Composer struct {
	config Config
	screen Screen
	viewer Viewer
	log    *zap.Logger

	gpu      passes
	earthTex uint32
}

// New compiles the surface program, uploads the base globe and loads the
// world texture. painter draws the preview and is not owned by the composer.
func New(cfg Config, screen Screen, viewer Viewer, painter *quad.Painter, log *zap.Logger) (*Composer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gp := &glPasses{painter: painter}
	c := &Composer{
		config: cfg,
		screen: screen,
		viewer: viewer,
		log:    log,
		gpu:    gp,
	}

	var err error
	gp.program, err = shader.New("surface", shaders.SurfaceVertexShader, shaders.SurfaceFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("creating surface shader: %w", err)
	}

	if err := c.loadEarthTexture(); err != nil {
		c.Destroy()
		return nil, err
	}

	sphere := globe.BuildSphere(cfg.GlobeRadius, cfg.GlobeResolution)
	gp.globeMesh = mesh.New(mesh.Static)
	gp.globeMesh.Upload(sphere)
	log.Debug("globe uploaded",
		zap.Int("vertices", sphere.VertexCount()),
		zap.Int("triangles", sphere.TriangleCount()),
	)

	gp.drapeMesh = mesh.New(mesh.Stream)
	return c, nil
}

func (c *Composer) loadEarthTexture() error {
	opts := texture.Options{Repeat: true, Mipmap: true}
	if c.config.EarthTexture != "" {
		id, err := texture.LoadFile(c.config.EarthTexture, opts)
		if err == nil {
			c.earthTex = id
			c.log.Info("world texture loaded", zap.String("path", c.config.EarthTexture))
			return nil
		}
		c.log.Warn("world texture unavailable, using flat color", zap.Error(err))
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, oceanColor)
	id, err := texture.Upload(img, texture.Options{})
	if err != nil {
		return fmt.Errorf("creating fallback globe texture: %w", err)
	}
	c.earthTex = id
	return nil
}

// Compose draws the preview, then the globe and the drape with depth testing.
// Depth testing is disabled again on return.
func (c *Composer) Compose(f *drape.Frame) {
	c.screen.Begin()

	if f.Buffer != nil {
		w, h := c.screen.Size()
		dst := image.Rect(0, 0, c.config.PreviewWidth, c.config.PreviewHeight)
		c.gpu.Preview(f.Buffer.ColorTexture(), dst, w, h)
	}

	c.gpu.SetDepthTest(true)
	defer c.gpu.SetDepthTest(false)

	c.gpu.UseSurface(c.viewer.ViewProjection(c.screen.Aspect()))

	c.drawGlobe()

	if f.Mesh != nil && f.Buffer != nil {
		c.drawDrape(f)
	}
}

func (c *Composer) drawGlobe() {
	unbind := c.gpu.BindTexture(c.earthTex)
	defer unbind()

	c.gpu.DrawGlobe()
}

func (c *Composer) drawDrape(f *drape.Frame) {
	unbind := c.gpu.BindTexture(f.Buffer.ColorTexture())
	defer unbind()

	c.gpu.DrawDrape(f.Mesh, c.config.DrapeOpacity)
}

// Destroy releases GL resources owned by the composer.
func (c *Composer) Destroy() {
	if gp, ok := c.gpu.(*glPasses); ok {
		gp.delete()
	}
	if c.earthTex != 0 {
		texture.Delete(c.earthTex)
		c.earthTex = 0
	}
}
