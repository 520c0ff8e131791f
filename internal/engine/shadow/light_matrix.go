package shadow

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection describes the light's orthographic volume.
type Projection struct {
	Extent   float32 // half size of the square volume
	Near     float32
	Far      float32
	Distance float32 // eye distance from the target along the light direction
}

// LightSpaceMatrix returns ortho · lookAt for a directional light shining
// along dir towards target. The eye sits at target - dir·Distance.
func LightSpaceMatrix(dir, target mgl32.Vec3, p Projection) mgl32.Mat4 {
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	dir = dir.Normalize()
	eye := target.Sub(dir.Mul(p.Distance))

	up := mgl32.Vec3{0, 1, 0}
	// lookAt degenerates when looking straight along up
	if math32.Abs(dir.Y()) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}

	view := mgl32.LookAtV(eye, target, up)
	proj := mgl32.Ortho(-p.Extent, p.Extent, -p.Extent, p.Extent, p.Near, p.Far)
	return proj.Mul4(view)
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the center point of the AABB.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b AABB) Radius() float32 {
	return b.Max.Sub(b.Min).Len() / 2
}

// Fit returns a projection that encloses the box when looking at its center.
func Fit(b AABB) Projection {
	radius := b.Radius()
	if radius <= 0 {
		radius = 1
	}
	padding := radius * 0.1
	distance := radius * 2
	return Projection{
		Extent:   radius + padding,
		Near:     0.1,
		Far:      distance + radius + padding,
		Distance: distance,
	}
}
