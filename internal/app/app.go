// Package app wires the map, the draping pipeline and the globe view into
// the main loop.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/globedrape/internal/assets"
	"github.com/Faultbox/globedrape/internal/config"
	"github.com/Faultbox/globedrape/internal/drape"
	"github.com/Faultbox/globedrape/internal/engine/camera"
	"github.com/Faultbox/globedrape/internal/engine/debug"
	"github.com/Faultbox/globedrape/internal/engine/framebuffer"
	"github.com/Faultbox/globedrape/internal/engine/input"
	"github.com/Faultbox/globedrape/internal/engine/quad"
	"github.com/Faultbox/globedrape/internal/engine/renderer"
	"github.com/Faultbox/globedrape/internal/engine/scene"
	"github.com/Faultbox/globedrape/internal/engine/window"
	"github.com/Faultbox/globedrape/internal/globe"
	"github.com/Faultbox/globedrape/internal/logger"
	"github.com/Faultbox/globedrape/internal/maps"
	"github.com/Faultbox/globedrape/internal/metrics"
	"github.com/Faultbox/globedrape/internal/nav"
)

const title = "globedrape"

// App is the running application.
type App struct {
	config  *config.Config
	log     *zap.Logger
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input

	assets   *assets.Manager
	provider *maps.Provider
	cache    *maps.MBTilesCache
	tiles    *maps.TileSet
	layer    *maps.Layer

	painter  *quad.Painter
	buffer   *framebuffer.Framebuffer
	composer *scene.Composer
	pipeline *drape.Pipeline

	camera     *camera.OrbitCamera
	nav        *nav.Controller
	screenshot *debug.ScreenshotCapture
	metrics    *metrics.Server
}

// New creates the window and every subsystem. Anything created before a
// failure is released again.
func New(cfg *config.Config) (_ *App, err error) {
	a := &App{
		config: cfg,
		log:    logger.Named("app"),
		assets: assets.NewManager(config.ConfigDir(), "."),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.log.Info("initializing",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.Int("buffer_width", cfg.Map.BufferWidth),
		zap.Int("buffer_height", cfg.Map.BufferHeight),
	)

	// Create window (this also creates OpenGL context)
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	dw, dh := a.window.DrawableSize()
	a.renderer, err = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		ClearColor: [4]float32{0.02, 0.02, 0.05, 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New()

	if err := a.initMap(); err != nil {
		return nil, err
	}
	if err := a.initScene(); err != nil {
		return nil, err
	}

	if cfg.Metrics.Listen != "" {
		a.metrics = metrics.Serve(cfg.Metrics.Listen, func(err error) {
			a.log.Error("metrics endpoint failed", zap.Error(err))
		})
		a.log.Info("serving metrics", zap.String("addr", cfg.Metrics.Listen))
	}

	a.screenshot = debug.NewScreenshotCapture(cfg.Screenshots.Dir, "map")

	a.log.Info("initialized successfully")
	return a, nil
}

// initMap sets up the tile provider, its cache, the tile set and the layer.
func (a *App) initMap() error {
	cfg := a.config.Map

	a.provider = maps.DefaultProvider()
	if cfg.Provider != "" {
		data, err := a.assets.Load(cfg.Provider)
		if err != nil {
			return fmt.Errorf("loading tile provider: %w", err)
		}
		if a.provider, err = maps.ParseProvider(data); err != nil {
			return fmt.Errorf("loading tile provider %s: %w", cfg.Provider, err)
		}
	}
	if cfg.UserAgent != "" {
		a.provider.SetUserAgent(cfg.UserAgent)
	}

	var store maps.TileStore
	cache, err := maps.OpenMBTiles(cfg.CacheDir, a.provider)
	if err != nil {
		a.log.Warn("tile cache unavailable, tiles will not persist", zap.Error(err))
	} else {
		a.cache = cache
		store = cache
		a.log.Info("tile cache opened", zap.String("path", cache.Path()))
	}

	a.tiles = maps.NewTileSet(a.provider, store, maps.TileSetOptions{
		Capacity: cfg.TileSetSize,
		Workers:  cfg.FetchWorkers,
		Logger:   logger.Named("tiles"),
	})

	a.painter, err = quad.New(logger.Named("quad"))
	if err != nil {
		return fmt.Errorf("creating quad painter: %w", err)
	}

	a.layer = maps.NewLayer(a.tiles, a.painter, maps.LayerOptions{
		Width:   cfg.BufferWidth,
		Height:  cfg.BufferHeight,
		MinZoom: a.provider.MinZoom,
		MaxZoom: a.provider.MaxZoom,
	})

	a.log.Info("tile provider ready",
		zap.String("id", a.provider.ID),
		zap.String("name", a.provider.Name),
		zap.Int("min_zoom", a.provider.MinZoom),
		zap.Int("max_zoom", a.provider.MaxZoom),
	)
	return nil
}

// initScene sets up the offscreen buffer, the globe, the drape pipeline and
// navigation.
func (a *App) initScene() error {
	cfg := a.config
	var err error

	a.buffer, err = framebuffer.New(int32(cfg.Map.BufferWidth), int32(cfg.Map.BufferHeight))
	if err != nil {
		return fmt.Errorf("creating map buffer: %w", err)
	}

	a.camera = camera.NewOrbitCamera(float32(cfg.Globe.Radius))

	sceneCfg := scene.DefaultConfig()
	sceneCfg.PreviewWidth = cfg.Preview.Width
	sceneCfg.PreviewHeight = cfg.Preview.Height
	sceneCfg.GlobeRadius = cfg.Globe.Radius
	sceneCfg.GlobeResolution = cfg.Globe.Resolution
	if cfg.Globe.Texture != "" {
		path, err := a.assets.Find(cfg.Globe.Texture)
		if err != nil {
			a.log.Warn("world texture not found", zap.String("name", cfg.Globe.Texture), zap.Error(err))
		}
		sceneCfg.EarthTexture = path
	}

	a.composer, err = scene.New(sceneCfg, a.renderer, a.camera, a.painter, logger.Named("scene"))
	if err != nil {
		return fmt.Errorf("creating scene: %w", err)
	}

	generator := globe.NewGenerator(cfg.Drape.Rows, cfg.Drape.Cols, cfg.Globe.Radius)
	generator.RadiusScale = cfg.Drape.RadiusScale

	view := &mapView{Layer: a.layer, painter: a.painter}
	a.pipeline = drape.NewPipeline(
		drape.NewViewportRenderer(view, a.buffer),
		view,
		generator,
		a.composer,
		logger.Named("drape"),
	)

	a.nav = nav.NewController(a.layer, cfg.NavPresets(), logger.Named("nav"))

	first := a.nav.Presets()[0]
	a.layer.SetCenter(first.Center)
	a.camera.Face(facing(first.Center))
	return nil
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting main loop")

	for a.running {
		start := time.Now()

		// 1. Process input
		if a.input.Update() {
			a.running = false
			break
		}
		for _, event := range a.input.Events() {
			a.handleEvent(event)
		}

		// 2. Map update, offscreen render, drape rebuild and compose
		a.pipeline.Step()
		if err := a.renderer.End(); err != nil {
			a.log.Debug("frame finished with GL error", zap.Error(err))
		}

		// 3. Present
		a.window.SwapBuffers()

		metrics.FrameDuration.Observe(time.Since(start).Seconds())

		frameCount++
		if elapsed := time.Since(fpsTimer); elapsed >= time.Second {
			f := a.pipeline.Frame()
			a.log.Debug("fps",
				zap.Float64("fps", float64(frameCount)/elapsed.Seconds()),
				zap.Int("tiles", a.tiles.Len()),
				zap.Int("pending", a.tiles.Pending()),
				zap.Int("textures", a.painter.Resident()),
				zap.Bool("rebuilt", f.Rebuilt),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handleEvent(event input.Event) {
	switch event.Type {
	case input.EventWindowResize:
		a.renderer.Resize(a.window.DrawableSize())
	case input.EventKeyDown:
		switch event.Key {
		case sdl.SCANCODE_ESCAPE:
			a.running = false
		case sdl.SCANCODE_F12:
			a.captureBuffer()
		default:
			a.handleKey(event.Symbol)
		}
	case input.EventMouseMove:
		if a.input.Dragging() {
			a.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
		}
	case input.EventMouseWheel:
		a.camera.HandleZoom(event.Wheel)
	}
}

// handleKey forwards navigation keys. Preset keys also turn the globe toward
// the new center.
func (a *App) handleKey(key rune) {
	if !a.nav.HandleKey(key) {
		return
	}
	if key >= '1' && key <= '9' {
		a.camera.Face(facing(a.layer.Center()))
	}
	a.log.Debug("map centered", zap.Stringer("center", a.layer.Center()))
}

func (a *App) captureBuffer() {
	name, err := a.screenshot.Capture(a.buffer)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("file", name))
}

// Close releases all resources. It is safe on a partially built App.
func (a *App) Close() {
	a.log.Info("closing")

	var errs []error
	if a.metrics != nil {
		errs = append(errs, a.metrics.Close())
	}
	if a.tiles != nil {
		a.tiles.Close()
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.composer != nil {
		a.composer.Destroy()
	}
	if a.buffer != nil {
		a.buffer.Destroy()
	}
	if a.painter != nil {
		a.painter.Delete()
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
	if a.assets != nil {
		a.assets.Close()
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("error during shutdown", zap.Error(err))
	}
}
