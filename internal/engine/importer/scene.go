// Package importer reads 3D asset files into an in-memory scene graph and
// normalizes it with post-processing steps.
package importer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrIncomplete is returned for scenes that parsed but carry no usable geometry.
	ErrIncomplete = errors.New("scene incomplete")
	// ErrNoRoot is returned when the asset has no root node.
	ErrNoRoot = errors.New("scene has no root node")
)

// Importer loads an asset file.
type Importer interface {
	Import(path string, flags PostProcess) (*Scene, error)
}

// Slot is a material texture slot as authored in the asset.
type Slot int

const (
	SlotBaseColor Slot = iota
	SlotDiffuse
	SlotNormalCamera
	SlotNormals
	SlotHeight
	SlotMetalness
	SlotSpecular
	SlotDiffuseRoughness
	SlotAmbientOcclusion
	SlotLightmap
	SlotEmissive
	SlotDisplacement
)

// Material lists texture paths per slot. Paths are relative to the asset's
// directory; keys of the form "*N" name Scene.Images entries.
type Material struct {
	Name     string
	Textures map[Slot][]string
}

// Texture returns the first texture in slot s, or "".
func (m *Material) Texture(s Slot) string {
	if m == nil || len(m.Textures[s]) == 0 {
		return ""
	}
	return m.Textures[s][0]
}

// PrimitiveType flags the face kinds present in a mesh.
type PrimitiveType uint8

const (
	PrimitivePoint PrimitiveType = 1 << iota
	PrimitiveLine
	PrimitiveTriangle
	PrimitivePolygon
)

// Mesh is one drawable piece of geometry with a single material.
// Optional channels are nil when absent.
type Mesh struct {
	Name       string
	Positions  []mgl32.Vec3
	Normals    []mgl32.Vec3
	TexCoords  []mgl32.Vec2 // UV channel 0
	Tangents   []mgl32.Vec3
	Bitangents []mgl32.Vec3
	Faces      [][]uint32
	Material   int
}

// HasNormals reports whether per-vertex normals are present.
func (m *Mesh) HasNormals() bool { return len(m.Normals) == len(m.Positions) && m.Normals != nil }

// HasTexCoords reports whether UV channel 0 is present.
func (m *Mesh) HasTexCoords() bool { return len(m.TexCoords) == len(m.Positions) && m.TexCoords != nil }

// HasTangents reports whether tangents and bitangents are present.
func (m *Mesh) HasTangents() bool {
	return m.Tangents != nil && len(m.Tangents) == len(m.Positions) && len(m.Bitangents) == len(m.Positions)
}

// Primitives returns the face kinds in the mesh.
func (m *Mesh) Primitives() PrimitiveType {
	var p PrimitiveType
	for _, f := range m.Faces {
		switch {
		case len(f) == 1:
			p |= PrimitivePoint
		case len(f) == 2:
			p |= PrimitiveLine
		case len(f) == 3:
			p |= PrimitiveTriangle
		case len(f) > 3:
			p |= PrimitivePolygon
		}
	}
	return p
}

// Node is a scene graph node referencing meshes by index.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// EmbeddedImage is image data stored inside the asset.
type EmbeddedImage struct {
	Data     []byte
	MimeType string
}

// Scene is an imported asset.
type Scene struct {
	Root      *Node
	Meshes    []*Mesh
	Materials []*Material
	Images    map[string]EmbeddedImage
}

// Walk visits nodes depth-first, parent before children.
func (s *Scene) Walk(fn func(n *Node)) {
	var visit func(n *Node)
	visit = func(n *Node) {
		if n == nil {
			return
		}
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(s.Root)
}

// Validate checks that the scene is complete and every reference is in range.
func (s *Scene) Validate() error {
	if s.Root == nil {
		return ErrNoRoot
	}
	if len(s.Meshes) == 0 {
		return fmt.Errorf("%w: no meshes", ErrIncomplete)
	}
	var err error
	s.Walk(func(n *Node) {
		for _, mi := range n.Meshes {
			if err == nil && (mi < 0 || mi >= len(s.Meshes)) {
				err = fmt.Errorf("node %q references mesh %d of %d", n.Name, mi, len(s.Meshes))
			}
		}
	})
	if err != nil {
		return err
	}
	for i, m := range s.Meshes {
		if m.Material < 0 || (len(s.Materials) > 0 && m.Material >= len(s.Materials)) {
			return fmt.Errorf("mesh %d references material %d of %d", i, m.Material, len(s.Materials))
		}
	}
	return checkIndices(s)
}
