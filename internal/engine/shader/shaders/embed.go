// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// ShadowDepthVertexShader transforms instances into light space.
//
//go:embed shadow_depth.vert
var ShadowDepthVertexShader string

// ShadowDepthFragmentShader writes depth only.
//
//go:embed shadow_depth.frag
var ShadowDepthFragmentShader string

// LitVertexShader is the vertex shader for the lit forward pass.
//
//go:embed lit.vert
var LitVertexShader string

// LitFragmentShader shades with directional, point and spot lights plus shadows.
//
//go:embed lit.frag
var LitFragmentShader string

// MarkerVertexShader is the vertex shader for light marker spheres.
//
//go:embed marker.vert
var MarkerVertexShader string

// MarkerFragmentShader outputs a flat emissive color.
//
//go:embed marker.frag
var MarkerFragmentShader string

// SkyboxVertexShader is the vertex shader for the cubemap sky.
//
//go:embed skybox.vert
var SkyboxVertexShader string

// SkyboxFragmentShader samples the sky cubemap.
//
//go:embed skybox.frag
var SkyboxFragmentShader string
