// Package picking provides ray casting and object picking utilities.
package picking

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/engine/model"
	"github.com/Faultbox/oglrenderer/internal/engine/scene"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of projection·view.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*screenX/viewportW - 1
	ndcY := 1 - 2*screenY/viewportH // Flip Y

	near := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(invViewProj, mgl32.Vec4{ndcX, ndcY, 1, 1})

	dir := far.Sub(near)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: near, Direction: dir}
}

func unproject(inv mgl32.Mat4, p mgl32.Vec4) mgl32.Vec3 {
	w := inv.Mul4x1(p)
	if w[3] != 0 {
		return w.Vec3().Mul(1 / w[3])
	}
	return w.Vec3()
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-math32.MaxFloat32)
	tmax := float32(math32.MaxFloat32)

	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		if d == 0 {
			if o < box.Min[axis] || o > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - o) / d
		t2 := (box.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math32.Max(tmin, t1)
		tmax = math32.Min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// WorldAABB transforms local model bounds by m and returns the box around
// the eight transformed corners.
func WorldAABB(b model.Bounds, m mgl32.Mat4) AABB {
	box := AABB{
		Min: mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: mgl32.Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
	for i := 0; i < 8; i++ {
		c := b.Min
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		w := m.Mul4x1(c.Vec4(1)).Vec3()
		for a := 0; a < 3; a++ {
			box.Min[a] = math32.Min(box.Min[a], w[a])
			box.Max[a] = math32.Max(box.Max[a], w[a])
		}
	}
	return box
}

// Pick returns the nearest visible object whose world bounds the ray hits.
// Objects without geometry are skipped.
func Pick(objects []*scene.Object, r Ray) (*scene.Object, float32) {
	var best *scene.Object
	bestT := float32(math32.MaxFloat32)
	for _, o := range objects {
		if o == nil || !o.Visible || o.Model == nil || !o.Model.Bounds.Valid() {
			continue
		}
		t, hit := r.IntersectAABB(WorldAABB(o.Model.Bounds, o.Transform()))
		if hit && t < bestT {
			best, bestT = o, t
		}
	}
	return best, bestT
}
