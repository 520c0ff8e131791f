package importer

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/logger"
)

const extSpecularGlossiness = "KHR_materials_pbrSpecularGlossiness"

// GLTF imports .gltf and .glb files.
type GLTF struct{}

var _ Importer = GLTF{}

// Import parses path and applies flags. Node transforms are not applied;
// every primitive becomes one mesh in its own coordinates.
func (GLTF) Import(path string, flags PostProcess) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	b := gltfBuilder{doc: doc, scene: &Scene{Images: make(map[string]EmbeddedImage)}}
	if err := b.build(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := Apply(b.scene, flags); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	logger.Debug("gltf imported",
		zap.String("path", path),
		zap.Int("meshes", len(b.scene.Meshes)),
		zap.Int("materials", len(b.scene.Materials)),
		zap.Int("embeddedImages", len(b.scene.Images)),
		zap.Stringer("postProcess", flags),
	)
	return b.scene, nil
}

type gltfBuilder struct {
	doc   *gltf.Document
	scene *Scene

	primMeshes      [][]int // glTF mesh index -> scene mesh indices
	defaultMaterial int
}

func (b *gltfBuilder) build() error {
	b.defaultMaterial = -1
	for _, m := range b.doc.Materials {
		b.scene.Materials = append(b.scene.Materials, b.material(m))
	}

	b.primMeshes = make([][]int, len(b.doc.Meshes))
	for mi, m := range b.doc.Meshes {
		for pi, prim := range m.Primitives {
			mesh, err := b.primitive(prim)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if mesh == nil {
				continue
			}
			mesh.Name = m.Name
			b.primMeshes[mi] = append(b.primMeshes[mi], len(b.scene.Meshes))
			b.scene.Meshes = append(b.scene.Meshes, mesh)
		}
	}

	roots, err := b.rootNodes()
	if err != nil {
		return err
	}
	root := &Node{Name: "root"}
	visiting := make(map[int]bool)
	for _, ni := range roots {
		child, err := b.node(ni, visiting)
		if err != nil {
			return err
		}
		root.Children = append(root.Children, child)
	}
	b.scene.Root = root

	if len(b.scene.Meshes) == 0 {
		return fmt.Errorf("%w: no triangle geometry", ErrIncomplete)
	}
	return nil
}

// rootNodes returns the default scene's nodes, or every parentless node when
// the document declares no scene.
func (b *gltfBuilder) rootNodes() ([]int, error) {
	if len(b.doc.Scenes) > 0 {
		si := 0
		if b.doc.Scene != nil && *b.doc.Scene < len(b.doc.Scenes) {
			si = *b.doc.Scene
		}
		return b.doc.Scenes[si].Nodes, nil
	}
	if len(b.doc.Nodes) == 0 {
		return nil, ErrNoRoot
	}
	isChild := make([]bool, len(b.doc.Nodes))
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			if c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range b.doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		return nil, ErrNoRoot
	}
	return roots, nil
}

func (b *gltfBuilder) node(idx int, visiting map[int]bool) (*Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if visiting[idx] {
		return nil, fmt.Errorf("node %d is its own ancestor", idx)
	}
	visiting[idx] = true
	defer delete(visiting, idx)

	src := b.doc.Nodes[idx]
	n := &Node{Name: src.Name}
	if src.Mesh != nil && *src.Mesh < len(b.primMeshes) {
		n.Meshes = append(n.Meshes, b.primMeshes[*src.Mesh]...)
	}
	for _, ci := range src.Children {
		c, err := b.node(ci, visiting)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// primitive converts one glTF primitive. Non-surface modes return nil.
func (b *gltfBuilder) primitive(prim *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}
	acc, err := b.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(b.doc, acc, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	m := &Mesh{Positions: toVec3(positions)}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acc, err := b.accessor(idx); err == nil {
			normals, err := modeler.ReadNormal(b.doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("read normals: %w", err)
			}
			m.Normals = toVec3(normals)
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acc, err := b.accessor(idx); err == nil {
			uvs, err := modeler.ReadTextureCoord(b.doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("read texcoords: %w", err)
			}
			// Stored with a bottom-left origin; FlipUVs restores the file's
			// top-left convention, which matches top-row-first uploads.
			m.TexCoords = make([]mgl32.Vec2, len(uvs))
			for i, uv := range uvs {
				m.TexCoords[i] = mgl32.Vec2{uv[0], 1 - uv[1]}
			}
		}
	}

	if idx, ok := prim.Attributes[gltf.TANGENT]; ok && m.HasNormals() {
		if acc, err := b.accessor(idx); err == nil {
			tangents, err := modeler.ReadTangent(b.doc, acc, nil)
			if err != nil {
				return nil, fmt.Errorf("read tangents: %w", err)
			}
			m.Tangents = make([]mgl32.Vec3, len(tangents))
			m.Bitangents = make([]mgl32.Vec3, len(tangents))
			for i, t := range tangents {
				tv := mgl32.Vec3{t[0], t[1], t[2]}
				m.Tangents[i] = tv
				if i < len(m.Normals) {
					// Negated to match the bottom-left UV origin above.
					m.Bitangents[i] = m.Normals[i].Cross(tv).Mul(-t[3])
				}
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		acc, err := b.accessor(*prim.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(b.doc, acc, nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch prim.Mode {
	case gltf.PrimitiveTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1], indices[i+2]})
		}
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				m.Faces = append(m.Faces, []uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		// One polygon; Triangulate fans it.
		if len(indices) >= 3 {
			m.Faces = append(m.Faces, append([]uint32(nil), indices...))
		}
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(indices); i += 2 {
			m.Faces = append(m.Faces, []uint32{indices[i], indices[i+1]})
		}
	case gltf.PrimitivePoints:
		for _, idx := range indices {
			m.Faces = append(m.Faces, []uint32{idx})
		}
	default:
		return nil, nil
	}

	if prim.Material != nil && *prim.Material < len(b.scene.Materials) {
		m.Material = *prim.Material
	} else {
		m.Material = b.fallbackMaterial()
	}
	return m, nil
}

func (b *gltfBuilder) fallbackMaterial() int {
	if b.defaultMaterial < 0 {
		b.defaultMaterial = len(b.scene.Materials)
		b.scene.Materials = append(b.scene.Materials, &Material{Name: "default", Textures: map[Slot][]string{}})
	}
	return b.defaultMaterial
}

func (b *gltfBuilder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

func (b *gltfBuilder) material(src *gltf.Material) *Material {
	m := &Material{Name: src.Name, Textures: make(map[Slot][]string)}
	add := func(slot Slot, texIdx int) {
		if p := b.texturePath(texIdx); p != "" {
			m.Textures[slot] = append(m.Textures[slot], p)
		}
	}

	if pbr := src.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			add(SlotBaseColor, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			// One image packs metalness in B and roughness in G.
			add(SlotMetalness, pbr.MetallicRoughnessTexture.Index)
			add(SlotDiffuseRoughness, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if src.NormalTexture != nil && src.NormalTexture.Index != nil {
		add(SlotNormalCamera, *src.NormalTexture.Index)
	}
	if src.OcclusionTexture != nil && src.OcclusionTexture.Index != nil {
		add(SlotAmbientOcclusion, *src.OcclusionTexture.Index)
	}
	if src.EmissiveTexture != nil {
		add(SlotEmissive, src.EmissiveTexture.Index)
	}

	if sg, ok := specularGlossiness(src.Extensions); ok {
		if sg.DiffuseTexture != nil {
			add(SlotDiffuse, sg.DiffuseTexture.Index)
		}
		if sg.SpecularGlossinessTexture != nil {
			add(SlotSpecular, sg.SpecularGlossinessTexture.Index)
		}
	}
	return m
}

type textureRef struct {
	Index int `json:"index"`
}

type specGloss struct {
	DiffuseTexture            *textureRef `json:"diffuseTexture"`
	SpecularGlossinessTexture *textureRef `json:"specularGlossinessTexture"`
}

// specularGlossiness decodes the legacy extension from its raw JSON.
func specularGlossiness(exts gltf.Extensions) (specGloss, bool) {
	var sg specGloss
	raw, ok := exts[extSpecularGlossiness]
	if !ok {
		return sg, false
	}
	var data []byte
	switch v := raw.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return sg, false
		}
	}
	if err := json.Unmarshal(data, &sg); err != nil {
		return sg, false
	}
	return sg, true
}

// texturePath resolves a texture index to a relative file path or an
// embedded image key ("*N").
func (b *gltfBuilder) texturePath(texIdx int) string {
	if texIdx < 0 || texIdx >= len(b.doc.Textures) {
		return ""
	}
	src := b.doc.Textures[texIdx].Source
	if src == nil || *src >= len(b.doc.Images) {
		return ""
	}
	img := b.doc.Images[*src]
	key := fmt.Sprintf("*%d", *src)

	switch {
	case img.BufferView != nil:
		if _, ok := b.scene.Images[key]; !ok {
			if data, ok := b.bufferView(*img.BufferView); ok {
				b.scene.Images[key] = EmbeddedImage{Data: data, MimeType: img.MimeType}
			}
		}
		return key
	case img.IsEmbeddedResource():
		if _, ok := b.scene.Images[key]; !ok {
			data, err := img.MarshalData()
			if err != nil {
				logger.Warn("bad embedded image", zap.Int("image", *src), zap.Error(err))
				return ""
			}
			mime := img.MimeType
			if mime == "" {
				mime = dataURIMime(img.URI)
			}
			b.scene.Images[key] = EmbeddedImage{Data: data, MimeType: mime}
		}
		return key
	case img.URI != "":
		if p, err := url.PathUnescape(img.URI); err == nil {
			return p
		}
		return img.URI
	}
	return ""
}

func (b *gltfBuilder) bufferView(idx int) ([]byte, bool) {
	if idx < 0 || idx >= len(b.doc.BufferViews) {
		return nil, false
	}
	bv := b.doc.BufferViews[idx]
	if bv.Buffer >= len(b.doc.Buffers) {
		return nil, false
	}
	data := b.doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if end > len(data) {
		return nil, false
	}
	return data[bv.ByteOffset:end], true
}

func dataURIMime(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	mime, _, _ := strings.Cut(rest, ";")
	return mime
}

func toVec3(src [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(src))
	for i, v := range src {
		out[i] = mgl32.Vec3(v)
	}
	return out
}
