package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"github.com/Faultbox/oglrenderer/internal/engine/scene"
	"github.com/Faultbox/oglrenderer/internal/engine/shadow"
)

// worldBounds returns the box around every instance's model bounds.
func worldBounds(batches []scene.Batch) (shadow.AABB, bool) {
	box := shadow.AABB{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
	found := false
	for _, b := range batches {
		if b.Model == nil || !b.Model.Bounds.Valid() {
			continue
		}
		mb := b.Model.Bounds
		for _, t := range b.Transforms {
			for i := 0; i < 8; i++ {
				corner := mgl32.Vec3{
					pick(i&1 != 0, mb.Max.X(), mb.Min.X()),
					pick(i&2 != 0, mb.Max.Y(), mb.Min.Y()),
					pick(i&4 != 0, mb.Max.Z(), mb.Min.Z()),
				}
				p := t.Mul4x1(corner.Vec4(1)).Vec3()
				for k := 0; k < 3; k++ {
					box.Min[k] = min(box.Min[k], p[k])
					box.Max[k] = max(box.Max[k], p[k])
				}
				found = true
			}
		}
	}
	return box, found
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}

func countErrors(err error) int {
	return len(multierr.Errors(err))
}
