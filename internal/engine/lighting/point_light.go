// Package lighting holds the light sources of a scene and their shader uniforms.
package lighting

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights is the maximum number of point lights supported in shaders.
const MaxPointLights = 10

// PointLight represents a point light source for GPU upload.
type PointLight struct {
	Position  mgl32.Vec3 `yaml:"position"`
	Color     mgl32.Vec3 `yaml:"color"`
	Range     float32    `yaml:"range"`     // falloff distance
	Intensity float32    `yaml:"intensity"` // multiplier
}

// normalized clamps color to 0-1 and fills in a missing range or intensity.
func (l PointLight) normalized() PointLight {
	for i := 0; i < 3; i++ {
		l.Color[i] = mgl32.Clamp(l.Color[i], 0, 1)
	}
	if l.Range <= 0 {
		l.Range = 10
	}
	if l.Intensity <= 0 {
		l.Intensity = 1
	}
	return l
}

// PointLightBuffer holds up to MaxPointLights lights.
type PointLightBuffer struct {
	Lights []PointLight
}

// NewPointLightBuffer creates an empty point light buffer.
func NewPointLightBuffer() *PointLightBuffer {
	return &PointLightBuffer{
		Lights: make([]PointLight, 0, MaxPointLights),
	}
}

// Count returns the number of lights.
func (b *PointLightBuffer) Count() int {
	return len(b.Lights)
}

// Clear removes all lights from the buffer.
func (b *PointLightBuffer) Clear() {
	b.Lights = b.Lights[:0]
}

// AddLight adds a point light to the buffer.
// Returns false if buffer is full.
func (b *PointLightBuffer) AddLight(light PointLight) bool {
	if len(b.Lights) >= MaxPointLights {
		return false
	}
	b.Lights = append(b.Lights, light.normalized())
	return true
}

// RemoveLight removes the light at index i.
func (b *PointLightBuffer) RemoveLight(i int) bool {
	if i < 0 || i >= len(b.Lights) {
		return false
	}
	b.Lights = append(b.Lights[:i], b.Lights[i+1:]...)
	return true
}

// SetLights replaces all lights in the buffer.
// Truncates to MaxPointLights if necessary.
func (b *PointLightBuffer) SetLights(lights []PointLight) {
	b.Clear()
	for _, l := range lights {
		if !b.AddLight(l) {
			return
		}
	}
}

// Positions returns the light positions in order.
func (b *PointLightBuffer) Positions() []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(b.Lights))
	for i, l := range b.Lights {
		out[i] = l.Position
	}
	return out
}

func pointLightUniform(i int, field string) string {
	return fmt.Sprintf("pointLights[%d].%s", i, field)
}
