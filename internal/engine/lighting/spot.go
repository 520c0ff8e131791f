package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default flashlight cone, in degrees.
const (
	DefaultCutOff      = 12.5
	DefaultOuterCutOff = 15.0
)

// SpotLight is a cone light, typically attached to the camera.
type SpotLight struct {
	Enabled     bool       `yaml:"enabled"`
	Position    mgl32.Vec3 `yaml:"position"`
	Direction   mgl32.Vec3 `yaml:"direction"`
	Color       mgl32.Vec3 `yaml:"color"`
	CutOff      float32    `yaml:"cut_off"`       // degrees
	OuterCutOff float32    `yaml:"outer_cut_off"` // degrees
}

// NewSpotLight returns a disabled white flashlight with the default cone.
func NewSpotLight() SpotLight {
	return SpotLight{
		Direction:   mgl32.Vec3{0, 0, -1},
		Color:       mgl32.Vec3{1, 1, 1},
		CutOff:      DefaultCutOff,
		OuterCutOff: DefaultOuterCutOff,
	}
}

// Follow moves the light to position, pointing along front.
func (s *SpotLight) Follow(position, front mgl32.Vec3) {
	s.Position = position
	s.Direction = front
}

// Cosines returns the cosines of the inner and outer cone angles as the
// shader expects them. The outer angle is never smaller than the inner one.
func (s SpotLight) Cosines() (inner, outer float32) {
	in, out := s.CutOff, s.OuterCutOff
	if out < in {
		out = in
	}
	return math32.Cos(mgl32.DegToRad(in)), math32.Cos(mgl32.DegToRad(out))
}
