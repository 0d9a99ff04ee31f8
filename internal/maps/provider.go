package maps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrZoomOutOfRange is returned when a tile is requested outside the
// provider's zoom levels.
var ErrZoomOutOfRange = errors.New("zoom level out of provider range")

// DefaultUserAgent is sent with tile requests unless the config overrides it.
const DefaultUserAgent = "globedrape/1.0"

// Provider describes a raster tile server.
type Provider struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	URL         string   `yaml:"url"`
	Subdomains  []string `yaml:"subdomains"`
	TileWidth   int      `yaml:"tile_width"`
	TileHeight  int      `yaml:"tile_height"`
	MinZoom     int      `yaml:"min_zoom"`
	MaxZoom     int      `yaml:"max_zoom"`
	Attribution string   `yaml:"attribution"`
	Format      string   `yaml:"format"`

	// Retina selects the high resolution variant where the template has {r}.
	Retina bool `yaml:"retina"`

	client    *http.Client
	userAgent string
}

// DefaultProvider returns the OpenStreetMap standard tile layer.
func DefaultProvider() *Provider {
	p := &Provider{
		ID:          "osm",
		Name:        "OpenStreetMap",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c"},
		TileWidth:   TileSize,
		TileHeight:  TileSize,
		MinZoom:     0,
		MaxZoom:     19,
		Attribution: "© OpenStreetMap contributors",
		Format:      "png",
	}
	p.applyDefaults()
	return p
}

// LoadProvider reads a provider description (JSON or YAML) from path.
func LoadProvider(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading provider: %w", err)
	}
	return ParseProvider(data)
}

// camelKeys holds the camelCase spellings used by ofxMaps provider.json
// files. A snake_case key wins when both are present.
type camelKeys struct {
	TileWidth  int `yaml:"tileWidth"`
	TileHeight int `yaml:"tileHeight"`
	MinZoom    int `yaml:"minZoom"`
	MaxZoom    int `yaml:"maxZoom"`
}

func (k camelKeys) fill(p *Provider) {
	if p.TileWidth == 0 {
		p.TileWidth = k.TileWidth
	}
	if p.TileHeight == 0 {
		p.TileHeight = k.TileHeight
	}
	if p.MinZoom == 0 {
		p.MinZoom = k.MinZoom
	}
	if p.MaxZoom == 0 {
		p.MaxZoom = k.MaxZoom
	}
}

// ParseProvider decodes a provider description. Keys may be snake_case or
// camelCase.
func ParseProvider(data []byte) (*Provider, error) {
	var p Provider
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing provider: %w", err)
	}
	var camel camelKeys
	if err := yaml.Unmarshal(data, &camel); err != nil {
		return nil, fmt.Errorf("parsing provider: %w", err)
	}
	camel.fill(&p)
	if p.URL == "" {
		return nil, errors.New("provider has no url template")
	}
	if p.ID == "" {
		return nil, errors.New("provider has no id")
	}
	if strings.Contains(p.URL, "{s}") && len(p.Subdomains) == 0 {
		return nil, fmt.Errorf("provider %s: url uses {s} but no subdomains are listed", p.ID)
	}
	if p.MaxZoom < p.MinZoom {
		return nil, fmt.Errorf("provider %s: max_zoom %d below min_zoom %d", p.ID, p.MaxZoom, p.MinZoom)
	}
	p.applyDefaults()
	return &p, nil
}

func (p *Provider) applyDefaults() {
	if p.TileWidth == 0 {
		p.TileWidth = TileSize
	}
	if p.TileHeight == 0 {
		p.TileHeight = TileSize
	}
	if p.MaxZoom == 0 && p.MinZoom == 0 {
		p.MaxZoom = 19
	}
	if p.Format == "" {
		p.Format = "png"
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 30 * time.Second}
	}
	if p.userAgent == "" {
		p.userAgent = DefaultUserAgent
	}
}

// SetUserAgent sets the User-Agent header sent with tile requests.
func (p *Provider) SetUserAgent(ua string) {
	if ua != "" {
		p.userAgent = ua
	}
}

// SetHTTPClient replaces the client used by Fetch.
func (p *Provider) SetHTTPClient(c *http.Client) {
	p.client = c
}

// HasZoom reports whether the provider serves tiles at zoom.
func (p *Provider) HasZoom(zoom int) bool {
	return zoom >= p.MinZoom && zoom <= p.MaxZoom
}

// TileURL fills the URL template for c.
func (p *Provider) TileURL(c TileCoord) string {
	c = c.Wrapped()

	sub := ""
	if n := len(p.Subdomains); n > 0 {
		sub = p.Subdomains[(c.X+c.Y)%n]
	}
	retina := ""
	if p.Retina {
		retina = "@2x"
	}

	r := strings.NewReplacer(
		"{z}", strconv.Itoa(c.Zoom),
		"{x}", strconv.Itoa(c.X),
		"{y}", strconv.Itoa(c.Y),
		"{s}", sub,
		"{r}", retina,
	)
	return r.Replace(p.URL)
}

// Fetch downloads the encoded image for c.
func (p *Provider) Fetch(ctx context.Context, c TileCoord) ([]byte, error) {
	if !p.HasZoom(c.Zoom) {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrZoomOutOfRange, c.Zoom, p.MinZoom, p.MaxZoom)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.TileURL(c), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tile %s: %w", c, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching tile %s: unexpected status %s", c, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading tile %s: %w", c, err)
	}
	return data, nil
}
