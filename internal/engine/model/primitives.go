package model

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sphere builds a UV sphere centered on the origin.
func Sphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	vertices := make([]Vertex, 0, (segments+1)*(rings+1))
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		phi := v * math32.Pi
		sinPhi, cosPhi := math32.Sincos(phi)
		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			theta := u * 2 * math32.Pi
			sinTheta, cosTheta := math32.Sincos(theta)

			n := mgl32.Vec3{cosTheta * sinPhi, cosPhi, sinTheta * sinPhi}
			t := mgl32.Vec3{-sinTheta, 0, cosTheta}
			vertices = append(vertices, Vertex{
				Position:  n.Mul(radius),
				Normal:    n,
				TexCoord:  mgl32.Vec2{u, 1 - v},
				Tangent:   t,
				Bitangent: n.Cross(t),
			})
		}
	}

	stride := uint32(segments + 1)
	indices := make([]uint32, 0, segments*rings*6)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*stride + s
			b := a + stride
			indices = append(indices, a, a+1, b, a+1, b+1, b)
		}
	}
	return NewMesh(vertices, indices, nil)
}

// Plane builds a square on the XZ plane facing +Y, with UVs repeated tile times.
func Plane(size, tile float32) *Mesh {
	h := size / 2
	up := mgl32.Vec3{0, 1, 0}
	tangent := mgl32.Vec3{1, 0, 0}
	bitangent := mgl32.Vec3{0, 0, -1}
	corner := func(x, z, u, v float32) Vertex {
		return Vertex{
			Position:  mgl32.Vec3{x, 0, z},
			Normal:    up,
			TexCoord:  mgl32.Vec2{u, v},
			Tangent:   tangent,
			Bitangent: bitangent,
		}
	}
	vertices := []Vertex{
		corner(-h, h, 0, 0),
		corner(h, h, tile, 0),
		corner(h, -h, tile, tile),
		corner(-h, -h, 0, tile),
	}
	return NewMesh(vertices, []uint32{0, 1, 2, 0, 2, 3}, nil)
}
