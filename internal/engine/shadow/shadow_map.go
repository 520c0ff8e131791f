// Package shadow provides directional-light shadow mapping.
package shadow

import (
	"fmt"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
)

// DefaultResolution is the default shadow map resolution.
const DefaultResolution = 2048

// Map is a depth-only framebuffer rendered from the light.
type Map struct {
	FBO          gpu.Framebuffer
	DepthTexture gpu.Texture
	Resolution   int32 // width = height

	dev gpu.Device
}

// NewMap creates a shadow map. Resolution should be a power of 2.
func NewMap(dev gpu.Device, resolution int32) (*Map, error) {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	fbo, tex, err := dev.CreateDepthMap(resolution)
	if err != nil {
		return nil, fmt.Errorf("shadow map %dx%d: %w", resolution, resolution, err)
	}
	return &Map{
		FBO:          fbo,
		DepthTexture: tex,
		Resolution:   resolution,
		dev:          dev,
	}, nil
}

// Bind binds the framebuffer for the depth pass, sets the viewport to the
// map resolution and clears depth. Front faces are culled to reduce acne.
func (sm *Map) Bind() {
	sm.dev.Viewport(0, 0, sm.Resolution, sm.Resolution)
	sm.dev.BindFramebuffer(sm.FBO)
	sm.dev.Clear(gpu.DepthBuffer)

	sm.dev.Enable(gpu.DepthTest)
	sm.dev.DepthFunc(gpu.Less)
	sm.dev.Enable(gpu.CullFace)
	sm.dev.CullFace(gpu.Front)
}

// Unbind restores the default framebuffer, a width x height viewport and
// back-face culling state.
func (sm *Map) Unbind(width, height int32) {
	sm.dev.BindFramebuffer(gpu.DefaultFramebuffer)
	sm.dev.Viewport(0, 0, width, height)
	sm.dev.CullFace(gpu.Back)
	sm.dev.Disable(gpu.CullFace)
}

// BindTexture binds the depth texture to the given texture unit.
func (sm *Map) BindTexture(unit uint32) {
	sm.dev.ActiveTexture(unit)
	sm.dev.BindTexture(gpu.Texture2D, sm.DepthTexture)
}

// Destroy releases all GPU resources associated with this shadow map.
func (sm *Map) Destroy() {
	if sm == nil || sm.dev == nil {
		return
	}
	if sm.FBO != 0 {
		sm.dev.DeleteFramebuffer(sm.FBO)
		sm.FBO = 0
	}
	if sm.DepthTexture != 0 {
		sm.dev.DeleteTexture(sm.DepthTexture)
		sm.DepthTexture = 0
	}
}

// IsValid returns true if the shadow map holds live GPU objects.
func (sm *Map) IsValid() bool {
	return sm != nil && sm.FBO != 0 && sm.DepthTexture != 0
}
