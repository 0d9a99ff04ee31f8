// Package mesh uploads globe meshes to the GPU and draws them.
package mesh

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/globedrape/internal/globe"
)

// Interleaved vertex layout: position xyz then texcoord uv.
const (
	floatsPerVertex = 5
	stride          = floatsPerVertex * 4
)

// Usage selects the buffer usage hint.
type Usage uint32

const (
	// Static is for geometry uploaded once, like the base globe.
	Static Usage = gl.STATIC_DRAW
	// Stream is for geometry replaced every frame, like the drape.
	Stream Usage = gl.STREAM_DRAW
)

// GPUMesh holds a vertex array with its vertex and index buffers.
type GPUMesh struct {
	vao, vbo, ebo uint32
	usage         Usage
	indexCount    int32
	source        *globe.Mesh
}

// New creates an empty GPU mesh.
func New(usage Usage) *GPUMesh {
	m := &GPUMesh{usage: usage}

	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m
}

// Upload replaces the GPU copy with src. Uploading the mesh already held is
// a no-op, so a reused drape costs nothing.
func (m *GPUMesh) Upload(src *globe.Mesh) {
	if src == nil || src == m.source {
		return
	}
	m.source = src

	verts := src.Interleaved()
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	if len(verts) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), uint32(m.usage))
	}
	if len(src.Indices) > 0 {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(src.Indices)*4, gl.Ptr(src.Indices), uint32(m.usage))
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	m.indexCount = int32(len(src.Indices))
}

// Empty reports whether nothing has been uploaded yet.
func (m *GPUMesh) Empty() bool {
	return m.indexCount == 0
}

// Draw issues the indexed triangle draw.
func (m *GPUMesh) Draw() {
	if m.indexCount == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

// Delete releases the GL objects.
func (m *GPUMesh) Delete() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
	m.source = nil
	m.indexCount = 0
}
