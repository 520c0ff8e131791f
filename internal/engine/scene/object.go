package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/engine/model"
)

// Object places one instance of a shared model in the scene.
type Object struct {
	Name     string
	Model    *model.Model
	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Euler angles in degrees, applied X then Y then Z
	Scale    float32
	Visible  bool
}

// NewObject returns a visible object at the origin with unit scale.
func NewObject(name string, m *model.Model) *Object {
	return &Object{
		Name:    name,
		Model:   m,
		Scale:   1,
		Visible: true,
	}
}

// Transform returns T(position) · Rx · Ry · Rz · S(scale).
func (o *Object) Transform() mgl32.Mat4 {
	t := mgl32.Translate3D(o.Position.X(), o.Position.Y(), o.Position.Z())
	rx := mgl32.HomogRotate3DX(mgl32.DegToRad(o.Rotation.X()))
	ry := mgl32.HomogRotate3DY(mgl32.DegToRad(o.Rotation.Y()))
	rz := mgl32.HomogRotate3DZ(mgl32.DegToRad(o.Rotation.Z()))
	s := mgl32.Scale3D(o.Scale, o.Scale, o.Scale)
	return t.Mul4(rx).Mul4(ry).Mul4(rz).Mul4(s)
}
