package drape

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/globedrape/internal/globe"
	"github.com/Faultbox/globedrape/internal/metrics"
	"github.com/Faultbox/globedrape/pkg/geo"
)

// MeshBuilder generates a drape mesh for viewport corners.
type MeshBuilder interface {
	Build(corners geo.ViewportCorners) (*globe.Mesh, error)
}

// Composer draws a finished frame.
type Composer interface {
	Compose(f *Frame)
}

// Pipeline sequences one frame: viewport update and offscreen render, corner
// lookup, mesh rebuild, composition. Stages never overlap and nothing is
// carried across frames except the last good mesh.
type Pipeline struct {
	viewport  *ViewportRenderer
	projector Projector
	builder   MeshBuilder
	composer  Composer
	log       *zap.Logger

	frame      Frame
	degenerate bool
}

// NewPipeline wires the pipeline stages. projector is normally the same tile
// layer the viewport renderer draws.
func NewPipeline(viewport *ViewportRenderer, projector Projector, builder MeshBuilder, composer Composer, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		viewport:  viewport,
		projector: projector,
		builder:   builder,
		composer:  composer,
		log:       log,
	}
}

// Update runs the update half of a frame: the layer update and the
// offscreen render.
func (p *Pipeline) Update() {
	p.frame.Number++
	p.viewport.Update()
	p.viewport.RenderToBuffer(&p.frame)
}

// Draw runs the draw half of a frame: corner lookup, mesh rebuild and
// composition. It must follow Update within the same frame.
func (p *Pipeline) Draw() {
	p.frame.Corners = Corners(p.projector)
	p.rebuild()

	if p.composer != nil {
		p.composer.Compose(&p.frame)
	}
}

// Step runs a full frame.
func (p *Pipeline) Step() {
	p.Update()
	p.Draw()
}

// Frame returns the current frame state.
func (p *Pipeline) Frame() *Frame {
	return &p.frame
}

// rebuild regenerates the mesh. On degenerate corners the previous mesh is
// kept and Rebuilt is cleared.
func (p *Pipeline) rebuild() {
	start := time.Now()
	mesh, err := p.builder.Build(p.frame.Corners)
	if err != nil {
		p.frame.Rebuilt = false
		reason := "error"
		switch {
		case errors.Is(err, globe.ErrDegenerateViewport):
			reason = "degenerate"
		case errors.Is(err, globe.ErrInvalidCorners):
			reason = "invalid_corners"
		}
		metrics.MeshRebuildsSkipped.WithLabelValues(reason).Inc()

		if !p.degenerate {
			p.log.Debug("keeping previous drape mesh",
				zap.Error(err),
				zap.Stringer("top_left", p.frame.Corners.TopLeft),
				zap.Stringer("bottom_right", p.frame.Corners.BottomRight),
			)
		}
		p.degenerate = true
		return
	}

	if p.degenerate {
		p.log.Debug("drape mesh rebuilding again", zap.Uint64("frame", p.frame.Number))
	}
	p.degenerate = false
	p.frame.Mesh = mesh
	p.frame.Rebuilt = true
	metrics.MeshRebuilds.Inc()
	metrics.MeshBuildDuration.Observe(time.Since(start).Seconds())
}
