// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ForwardVertexShader is the vertex shader for the forward pass.
//
//go:embed forward.vert
var ForwardVertexShader string

// ForwardFragmentShader is the fragment shader for the forward pass.
//
//go:embed forward.frag
var ForwardFragmentShader string
