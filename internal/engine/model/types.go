// Package model turns imported assets into GPU-ready meshes and instanced models.
package model

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is the interleaved vertex layout shared by every mesh.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3
	TexCoord  mgl32.Vec2
	Tangent   mgl32.Vec3
	Bitangent mgl32.Vec3
}

// Vertex layout in bytes.
const (
	VertexStride    = int32(unsafe.Sizeof(Vertex{}))
	offsetPosition  = unsafe.Offsetof(Vertex{}.Position)
	offsetNormal    = unsafe.Offsetof(Vertex{}.Normal)
	offsetTexCoord  = unsafe.Offsetof(Vertex{}.TexCoord)
	offsetTangent   = unsafe.Offsetof(Vertex{}.Tangent)
	offsetBitangent = unsafe.Offsetof(Vertex{}.Bitangent)
)

// Attribute slots. The per-instance mat4 takes four consecutive slots.
const (
	AttribPosition  = 0
	AttribNormal    = 1
	AttribTexCoord  = 2
	AttribTangent   = 3
	AttribBitangent = 4
	AttribInstance  = 5

	instanceStride = int32(unsafe.Sizeof(mgl32.Mat4{}))
)

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func emptyBounds() Bounds {
	return Bounds{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
}

func (b *Bounds) extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Valid reports whether any point was added.
func (b Bounds) Valid() bool {
	return b.Min[0] <= b.Max[0]
}
