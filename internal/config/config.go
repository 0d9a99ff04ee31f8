// Package config handles application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/globedrape/internal/nav"
	"github.com/Faultbox/globedrape/pkg/geo"
)

// Config holds all application settings.
type Config struct {
	Window      WindowConfig     `yaml:"window"`
	Map         MapConfig        `yaml:"map"`
	Globe       GlobeConfig      `yaml:"globe"`
	Drape       DrapeConfig      `yaml:"drape"`
	Preview     PreviewConfig    `yaml:"preview"`
	Presets     []PresetConfig   `yaml:"presets"`
	Logging     LoggingConfig    `yaml:"logging"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// MapConfig holds tile source and offscreen buffer settings.
type MapConfig struct {
	// Provider is a provider.json path. Empty selects OpenStreetMap.
	Provider     string `yaml:"provider"`
	CacheDir     string `yaml:"cache_dir"`
	TileSetSize  int    `yaml:"tile_set_size"`
	BufferWidth  int    `yaml:"buffer_width"`
	BufferHeight int    `yaml:"buffer_height"`
	FetchWorkers int    `yaml:"fetch_workers"`
	UserAgent    string `yaml:"user_agent"`
}

// GlobeConfig holds base globe settings.
type GlobeConfig struct {
	Radius     float64 `yaml:"radius"`
	Resolution int     `yaml:"resolution"`
	Texture    string  `yaml:"texture"`
}

// DrapeConfig holds drape mesh settings.
type DrapeConfig struct {
	Rows        int     `yaml:"rows"`
	Cols        int     `yaml:"cols"`
	RadiusScale float64 `yaml:"radius_scale"`
}

// PreviewConfig sizes the on-screen copy of the offscreen buffer.
type PreviewConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PresetConfig is a named location bound to a number key. Presets always
// open at nav.PresetZoom.
type PresetConfig struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// Coordinate returns the preset position at the preset zoom.
func (p PresetConfig) Coordinate() geo.Coordinate {
	return geo.New(p.Lat, p.Lon, nav.PresetZoom)
}

// NavPresets converts the configured presets for the navigation controller.
func (c *Config) NavPresets() []nav.Preset {
	out := make([]nav.Preset, 0, len(c.Presets))
	for _, p := range c.Presets {
		out = append(out, nav.Preset{Name: p.Name, Center: p.Coordinate()})
	}
	return out
}

func defaultPresets() []PresetConfig {
	presets := nav.DefaultPresets()
	out := make([]PresetConfig, 0, len(presets))
	for _, p := range presets {
		out = append(out, PresetConfig{Name: p.Name, Lat: p.Center.Latitude, Lon: p.Center.Longitude})
	}
	return out
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	// Listen is the address for /metrics. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// ScreenshotConfig holds screenshot settings.
type ScreenshotConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Map: MapConfig{
			Provider:     "",
			CacheDir:     "cache",
			TileSetSize:  1024,
			BufferWidth:  1920,
			BufferHeight: 1080,
			FetchWorkers: 64,
			UserAgent:    "globedrape/1.0",
		},
		Globe: GlobeConfig{
			Radius:     100,
			Resolution: 1000,
			Texture:    "earth.jpg",
		},
		Drape: DrapeConfig{
			Rows:        100,
			Cols:        100,
			RadiusScale: 1.001,
		},
		Preview: PreviewConfig{
			Width:  192,
			Height: 108,
		},
		Presets: defaultPresets(),
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Metrics: MetricsConfig{
			Listen: "",
		},
		Screenshots: ScreenshotConfig{
			Dir: "screenshots",
		},
	}
}

// Validate reports settings the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width < 1 || c.Window.Height < 1 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Map.BufferWidth < 1 || c.Map.BufferHeight < 1 {
		errs = append(errs, fmt.Errorf("map buffer size %dx%d must be positive", c.Map.BufferWidth, c.Map.BufferHeight))
	}
	if c.Map.TileSetSize < 1 {
		errs = append(errs, fmt.Errorf("map tile_set_size %d must be positive", c.Map.TileSetSize))
	}
	if c.Map.FetchWorkers < 1 {
		errs = append(errs, fmt.Errorf("map fetch_workers %d must be positive", c.Map.FetchWorkers))
	}
	if c.Globe.Radius <= 0 {
		errs = append(errs, fmt.Errorf("globe radius %g must be positive", c.Globe.Radius))
	}
	if c.Globe.Resolution < 2 {
		errs = append(errs, fmt.Errorf("globe resolution %d must be at least 2", c.Globe.Resolution))
	}
	if c.Drape.Rows < 2 || c.Drape.Cols < 2 {
		errs = append(errs, fmt.Errorf("drape resolution %dx%d must be at least 2x2", c.Drape.Rows, c.Drape.Cols))
	}
	if c.Drape.RadiusScale <= 0 {
		errs = append(errs, fmt.Errorf("drape radius_scale %g must be positive", c.Drape.RadiusScale))
	}
	if len(c.Presets) == 0 {
		errs = append(errs, errors.New("at least one preset is required"))
	}
	for i, p := range c.Presets {
		if !p.Coordinate().IsValid() || math.Abs(p.Lat) > 90 {
			errs = append(errs, fmt.Errorf("preset %d (%s) has invalid coordinate %v, %v", i+1, p.Name, p.Lat, p.Lon))
		}
	}
	return errors.Join(errs...)
}
