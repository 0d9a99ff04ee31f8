// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// SurfaceVertexShader transforms textured globe geometry.
//
//go:embed surface.vert
var SurfaceVertexShader string

// SurfaceFragmentShader samples the surface texture.
//
//go:embed surface.frag
var SurfaceFragmentShader string

// QuadVertexShader places textured quads in pixel space.
//
//go:embed quad.vert
var QuadVertexShader string

// QuadFragmentShader samples the quad texture.
//
//go:embed quad.frag
var QuadFragmentShader string
