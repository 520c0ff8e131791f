package model

import (
	"github.com/Faultbox/oglrenderer/internal/engine/importer"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
)

// flatten walks the scene depth-first, parent before children, and emits one
// Mesh per node mesh reference. Node transforms are not applied.
func flatten(s *importer.Scene, textures func(material int) []*texture.Texture) ([]*Mesh, Bounds) {
	var meshes []*Mesh
	bounds := emptyBounds()

	s.Walk(func(n *importer.Node) {
		for _, mi := range n.Meshes {
			src := s.Meshes[mi]
			mesh := convertMesh(src)
			for _, v := range mesh.Vertices {
				bounds.extend(v.Position)
			}
			mesh.Textures = textures(src.Material)
			meshes = append(meshes, mesh)
		}
	})
	return meshes, bounds
}

// convertMesh interleaves the attribute arrays. Missing normals, UVs or
// tangents become zero.
func convertMesh(src *importer.Mesh) *Mesh {
	hasNormals := src.HasNormals()
	hasUVs := src.HasTexCoords()
	hasTangents := src.HasTangents()

	vertices := make([]Vertex, len(src.Positions))
	for i, p := range src.Positions {
		v := Vertex{Position: p}
		if hasNormals {
			v.Normal = src.Normals[i]
		}
		if hasUVs {
			v.TexCoord = src.TexCoords[i]
		}
		if hasTangents {
			v.Tangent = src.Tangents[i]
			v.Bitangent = src.Bitangents[i]
		}
		vertices[i] = v
	}

	count := 0
	for _, f := range src.Faces {
		count += len(f)
	}
	indices := make([]uint32, 0, count)
	for _, f := range src.Faces {
		indices = append(indices, f...)
	}

	return NewMesh(vertices, indices, nil)
}
