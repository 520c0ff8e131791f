package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/engine/shader"
)

// Rig is every light the lit pass sees.
type Rig struct {
	Sun    DirectionalLight
	Points *PointLightBuffer
	Spot   SpotLight
}

// NewRig returns a rig with a white sun high in the sky, no point lights and
// a disabled flashlight.
func NewRig() *Rig {
	return &Rig{
		Sun:    FromSun(45, 60, mgl32.Vec3{1, 1, 1}),
		Points: NewPointLightBuffer(),
		Spot:   NewSpotLight(),
	}
}

// Apply sets the light uniforms on the bound lit program.
func (r *Rig) Apply(u shader.Uniforms) {
	u.SetVec3("dirLight.direction", r.Sun.Dir())
	u.SetVec3("dirLight.color", r.Sun.Color)

	n := 0
	if r.Points != nil {
		n = r.Points.Count()
		for i, l := range r.Points.Lights {
			u.SetVec3(pointLightUniform(i, "position"), l.Position)
			u.SetVec3(pointLightUniform(i, "color"), l.Color)
			u.SetFloat(pointLightUniform(i, "range"), l.Range)
			u.SetFloat(pointLightUniform(i, "intensity"), l.Intensity)
		}
	}
	u.SetInt("pointLightCount", int32(n))

	u.SetBool("enableSpotLight", r.Spot.Enabled)
	if r.Spot.Enabled {
		inner, outer := r.Spot.Cosines()
		u.SetVec3("spotLight.position", r.Spot.Position)
		u.SetVec3("spotLight.direction", r.Spot.Direction)
		u.SetVec3("spotLight.color", r.Spot.Color)
		u.SetFloat("spotLight.cutOff", inner)
		u.SetFloat("spotLight.outerCutOff", outer)
	}
}
