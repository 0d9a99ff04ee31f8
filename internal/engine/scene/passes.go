package scene

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/globedrape/internal/engine/mesh"
	"github.com/Faultbox/globedrape/internal/engine/quad"
	"github.com/Faultbox/globedrape/internal/engine/shader"
	"github.com/Faultbox/globedrape/internal/engine/texture"
	"github.com/Faultbox/globedrape/internal/globe"
)

// passes are the draw operations Compose sequences. The GL implementation
// lives in glPasses; tests record the calls instead.
type passes interface {
	Preview(tex uint32, dst image.Rectangle, screenW, screenH int)
	SetDepthTest(on bool)
	UseSurface(viewProj mgl32.Mat4)
	// BindTexture binds tex to unit 0 and returns the matching unbind.
	BindTexture(tex uint32) (unbind func())
	DrawGlobe()
	DrawDrape(m *globe.Mesh, opacity float32)
}

type glPasses struct {
	painter   *quad.Painter
	program   *shader.Program
	globeMesh *mesh.GPUMesh
	drapeMesh *mesh.GPUMesh
}

func (p *glPasses) Preview(tex uint32, dst image.Rectangle, screenW, screenH int) {
	p.painter.Begin(screenW, screenH, quad.TopDown)
	p.painter.DrawTexture(tex, dst)
}

func (p *glPasses) SetDepthTest(on bool) {
	if on {
		gl.Enable(gl.DEPTH_TEST)
		return
	}
	gl.Disable(gl.DEPTH_TEST)
}

func (p *glPasses) UseSurface(viewProj mgl32.Mat4) {
	p.program.Use()
	p.program.SetMat4("uMVP", viewProj)
	p.program.SetInt("uTexture", 0)
}

func (p *glPasses) BindTexture(tex uint32) func() {
	return texture.Bind(0, tex)
}

func (p *glPasses) DrawGlobe() {
	gl.Disable(gl.BLEND)
	p.program.SetFloat("uOpacity", 1)
	p.globeMesh.Draw()
}

func (p *glPasses) DrawDrape(m *globe.Mesh, opacity float32) {
	p.drapeMesh.Upload(m)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	p.program.SetFloat("uOpacity", opacity)
	p.drapeMesh.Draw()
}

func (p *glPasses) delete() {
	if p.drapeMesh != nil {
		p.drapeMesh.Delete()
		p.drapeMesh = nil
	}
	if p.globeMesh != nil {
		p.globeMesh.Delete()
		p.globeMesh = nil
	}
	if p.program != nil {
		p.program.Delete()
		p.program = nil
	}
}
