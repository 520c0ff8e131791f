// Package scene arranges instances of shared models and groups them into
// per-model batches for instanced drawing.
package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/engine/lighting"
	"github.com/Faultbox/oglrenderer/internal/engine/model"
)

// Scene is the set of objects and lights drawn each frame.
type Scene struct {
	Objects []*Object
	Lights  *lighting.Rig

	// Skybox lists cubemap faces in +X, -X, +Y, -Y, +Z, -Z order. Empty
	// entries select the generated sky.
	Skybox [6]string
	// Marker is drawn at each point light position. Nil disables markers.
	Marker *model.Model
}

// New returns an empty scene with the default light rig.
func New() *Scene {
	return &Scene{Lights: lighting.NewRig()}
}

// Add places a new object referencing m and takes a reference on it.
func (s *Scene) Add(name string, m *model.Model) *Object {
	o := NewObject(name, m)
	if m != nil {
		m.Retain()
	}
	s.Objects = append(s.Objects, o)
	return o
}

// Remove takes o out of the scene and drops its model reference.
func (s *Scene) Remove(o *Object) bool {
	for i, cur := range s.Objects {
		if cur != o {
			continue
		}
		s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
		if o.Model != nil {
			o.Model.Drop()
		}
		return true
	}
	return false
}

// Find returns the first object called name.
func (s *Scene) Find(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Clear removes every object, dropping their model references.
func (s *Scene) Clear() {
	for _, o := range s.Objects {
		if o.Model != nil {
			o.Model.Drop()
		}
	}
	s.Objects = nil
}

// SpawnGrid adds count instances of m on a square grid in the XZ plane,
// row by row, starting at origin.
func (s *Scene) SpawnGrid(m *model.Model, count int, spacing float32, origin mgl32.Vec3) []*Object {
	if count <= 0 {
		return nil
	}
	side := int(math32.Ceil(math32.Sqrt(float32(count))))
	base := "object"
	if m != nil {
		base = m.Name
	}

	out := make([]*Object, 0, count)
	for i := 0; i < count; i++ {
		row, col := i/side, i%side
		o := s.Add(fmt.Sprintf("%s_%d", base, len(s.Objects)), m)
		o.Position = origin.Add(mgl32.Vec3{float32(col) * spacing, 0, float32(row) * spacing})
		out = append(out, o)
	}
	return out
}

// Batches groups the visible objects by model.
func (s *Scene) Batches() ([]Batch, error) {
	return BuildBatches(s.Objects)
}

// MarkerBatch returns one marker instance per point light, scaled by scale.
func (s *Scene) MarkerBatch(scale float32) (Batch, bool) {
	if s.Marker == nil || s.Lights == nil || s.Lights.Points == nil || s.Lights.Points.Count() == 0 {
		return Batch{}, false
	}
	b := Batch{Model: s.Marker}
	for _, p := range s.Lights.Points.Positions() {
		m := mgl32.Translate3D(p.X(), p.Y(), p.Z()).Mul4(mgl32.Scale3D(scale, scale, scale))
		b.Transforms = append(b.Transforms, m)
	}
	return b, true
}
