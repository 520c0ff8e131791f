package importer

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// PostProcess selects normalization steps applied after parsing.
type PostProcess uint32

const (
	Triangulate PostProcess = 1 << iota
	GenSmoothNormals
	FlipUVs
	CalcTangentSpace
	JoinIdenticalVertices
	ImproveCacheLocality
	SortByPType
	RemoveRedundantMaterials
	OptimizeMeshes
)

// DefaultPostProcess is the recipe models are imported with.
const DefaultPostProcess = Triangulate | GenSmoothNormals | FlipUVs | CalcTangentSpace |
	JoinIdenticalVertices | ImproveCacheLocality | SortByPType |
	RemoveRedundantMaterials | OptimizeMeshes

var stepNames = []string{
	"Triangulate", "GenSmoothNormals", "FlipUVs", "CalcTangentSpace",
	"JoinIdenticalVertices", "ImproveCacheLocality", "SortByPType",
	"RemoveRedundantMaterials", "OptimizeMeshes",
}

func (p PostProcess) String() string {
	var names []string
	for i, n := range stepNames {
		if p&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Apply runs the selected steps in a fixed order and validates the result.
func Apply(s *Scene, flags PostProcess) error {
	if s.Root == nil {
		return ErrNoRoot
	}
	if err := checkIndices(s); err != nil {
		return err
	}
	if flags&Triangulate != 0 {
		for _, m := range s.Meshes {
			triangulate(m)
		}
	}
	if flags&SortByPType != 0 {
		for _, m := range s.Meshes {
			dropNonTriangles(m)
		}
		compactMeshes(s, func(m *Mesh) bool { return len(m.Faces) > 0 })
	}
	if flags&JoinIdenticalVertices != 0 {
		for _, m := range s.Meshes {
			joinIdentical(m)
		}
	}
	if flags&GenSmoothNormals != 0 {
		for _, m := range s.Meshes {
			if !m.HasNormals() {
				smoothNormals(m)
			}
		}
	}
	if flags&CalcTangentSpace != 0 {
		for _, m := range s.Meshes {
			if !m.HasTangents() && m.HasTexCoords() {
				tangentSpace(m)
			}
		}
	}
	if flags&FlipUVs != 0 {
		for _, m := range s.Meshes {
			flipUVs(m)
		}
	}
	if flags&ImproveCacheLocality != 0 {
		for _, m := range s.Meshes {
			reorderByFirstUse(m)
		}
	}
	if flags&RemoveRedundantMaterials != 0 {
		removeRedundantMaterials(s)
	}
	if flags&OptimizeMeshes != 0 {
		mergeMeshes(s)
	}
	return s.Validate()
}

func checkIndices(s *Scene) error {
	for i, m := range s.Meshes {
		n := uint32(len(m.Positions))
		for _, f := range m.Faces {
			for _, idx := range f {
				if idx >= n {
					return fmt.Errorf("mesh %d face index %d out of range (%d vertices)", i, idx, n)
				}
			}
		}
	}
	return nil
}

// triangulate fans polygons into triangles. Points and lines are kept.
func triangulate(m *Mesh) {
	var out [][]uint32
	for _, f := range m.Faces {
		if len(f) <= 3 {
			out = append(out, f)
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			out = append(out, []uint32{f[0], f[i], f[i+1]})
		}
	}
	m.Faces = out
}

func dropNonTriangles(m *Mesh) {
	out := m.Faces[:0]
	for _, f := range m.Faces {
		if len(f) == 3 {
			out = append(out, f)
		}
	}
	m.Faces = out
}

// compactMeshes removes meshes failing keep and remaps node references.
func compactMeshes(s *Scene, keep func(*Mesh) bool) {
	remap := make([]int, len(s.Meshes))
	var kept []*Mesh
	for i, m := range s.Meshes {
		if keep(m) {
			remap[i] = len(kept)
			kept = append(kept, m)
		} else {
			remap[i] = -1
		}
	}
	s.Meshes = kept
	s.Walk(func(n *Node) {
		refs := n.Meshes[:0]
		for _, mi := range n.Meshes {
			if mi >= 0 && mi < len(remap) && remap[mi] >= 0 {
				refs = append(refs, remap[mi])
			}
		}
		n.Meshes = refs
	})
}

type vertexKey struct {
	pos, normal, tangent, bitangent mgl32.Vec3
	uv                              mgl32.Vec2
}

func (m *Mesh) key(i int) vertexKey {
	k := vertexKey{pos: m.Positions[i]}
	if m.HasNormals() {
		k.normal = m.Normals[i]
	}
	if m.HasTexCoords() {
		k.uv = m.TexCoords[i]
	}
	if m.HasTangents() {
		k.tangent = m.Tangents[i]
		k.bitangent = m.Bitangents[i]
	}
	return k
}

// joinIdentical merges vertices whose every channel is bit-identical.
func joinIdentical(m *Mesh) {
	seen := make(map[vertexKey]uint32, len(m.Positions))
	remap := make([]uint32, len(m.Positions))
	var keep []int
	for i := range m.Positions {
		k := m.key(i)
		if j, ok := seen[k]; ok {
			remap[i] = j
			continue
		}
		j := uint32(len(keep))
		seen[k] = j
		remap[i] = j
		keep = append(keep, i)
	}
	if len(keep) == len(m.Positions) {
		return
	}
	m.gather(keep)
	for _, f := range m.Faces {
		for i := range f {
			f[i] = remap[f[i]]
		}
	}
}

// gather keeps only the listed vertices, in that order, in every channel.
func (m *Mesh) gather(order []int) {
	hasN, hasUV, hasT := m.HasNormals(), m.HasTexCoords(), m.HasTangents()
	pick3 := func(src []mgl32.Vec3) []mgl32.Vec3 {
		out := make([]mgl32.Vec3, len(order))
		for i, o := range order {
			out[i] = src[o]
		}
		return out
	}
	m.Positions = pick3(m.Positions)
	if hasN {
		m.Normals = pick3(m.Normals)
	}
	if hasT {
		m.Tangents = pick3(m.Tangents)
		m.Bitangents = pick3(m.Bitangents)
	}
	if hasUV {
		uv := make([]mgl32.Vec2, len(order))
		for i, o := range order {
			uv[i] = m.TexCoords[o]
		}
		m.TexCoords = uv
	}
}

// smoothNormals accumulates area-weighted face normals per vertex, then
// averages across vertices that share a position so split seams stay smooth.
func smoothNormals(m *Mesh) {
	const epsilon float32 = 0.001

	normals := make([]mgl32.Vec3, len(m.Positions))
	for _, f := range m.Faces {
		if len(f) != 3 {
			continue
		}
		p0, p1, p2 := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, idx := range f {
			normals[idx] = normals[idx].Add(n)
		}
	}

	byPos := make(map[[3]int32][]int)
	for i, p := range m.Positions {
		k := [3]int32{int32(p[0] / epsilon), int32(p[1] / epsilon), int32(p[2] / epsilon)}
		byPos[k] = append(byPos[k], i)
	}
	out := make([]mgl32.Vec3, len(normals))
	for _, idxs := range byPos {
		var sum mgl32.Vec3
		for _, i := range idxs {
			sum = sum.Add(normals[i])
		}
		avg := safeNormalize(sum, mgl32.Vec3{0, 1, 0})
		for _, i := range idxs {
			out[i] = avg
		}
	}
	m.Normals = out
}

func safeNormalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 1e-8 {
		return fallback
	}
	return v.Normalize()
}

// tangentSpace derives per-vertex tangents and bitangents from UV gradients.
func tangentSpace(m *Mesh) {
	tan := make([]mgl32.Vec3, len(m.Positions))
	bit := make([]mgl32.Vec3, len(m.Positions))
	for _, f := range m.Faces {
		if len(f) != 3 {
			continue
		}
		p0, p1, p2 := m.Positions[f[0]], m.Positions[f[1]], m.Positions[f[2]]
		uv0, uv1, uv2 := m.TexCoords[f[0]], m.TexCoords[f[1]], m.TexCoords[f[2]]
		e1, e2 := p1.Sub(p0), p2.Sub(p0)
		d1, d2 := uv1.Sub(uv0), uv2.Sub(uv0)

		det := d1[0]*d2[1] - d2[0]*d1[1]
		if det > -1e-12 && det < 1e-12 {
			continue
		}
		r := 1 / det
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		b := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, idx := range f {
			tan[idx] = tan[idx].Add(t)
			bit[idx] = bit[idx].Add(b)
		}
	}

	for i := range tan {
		n := mgl32.Vec3{0, 1, 0}
		if m.HasNormals() {
			n = m.Normals[i]
		}
		// Gram-Schmidt against the normal.
		t := safeNormalize(tan[i].Sub(n.Mul(n.Dot(tan[i]))), orthogonal(n))
		b := safeNormalize(bit[i], n.Cross(t))
		tan[i], bit[i] = t, b
	}
	m.Tangents, m.Bitangents = tan, bit
}

func orthogonal(n mgl32.Vec3) mgl32.Vec3 {
	if n[0] > -0.9 && n[0] < 0.9 {
		return mgl32.Vec3{1, 0, 0}.Cross(n).Normalize()
	}
	return mgl32.Vec3{0, 1, 0}.Cross(n).Normalize()
}

// flipUVs mirrors V and the bitangents that follow it.
func flipUVs(m *Mesh) {
	for i := range m.TexCoords {
		m.TexCoords[i][1] = 1 - m.TexCoords[i][1]
	}
	for i := range m.Bitangents {
		m.Bitangents[i] = m.Bitangents[i].Mul(-1)
	}
}

// reorderByFirstUse renumbers vertices in the order faces reference them so
// vertex fetches walk memory forward. Unreferenced vertices are dropped.
func reorderByFirstUse(m *Mesh) {
	remap := make([]int32, len(m.Positions))
	for i := range remap {
		remap[i] = -1
	}
	var order []int
	for _, f := range m.Faces {
		for _, idx := range f {
			if remap[idx] < 0 {
				remap[idx] = int32(len(order))
				order = append(order, int(idx))
			}
		}
	}
	m.gather(order)
	for _, f := range m.Faces {
		for i := range f {
			f[i] = uint32(remap[f[i]])
		}
	}
}

func materialKey(mat *Material) string {
	var b strings.Builder
	for s := SlotBaseColor; s <= SlotDisplacement; s++ {
		fmt.Fprintf(&b, "%d=%s;", s, strings.Join(mat.Textures[s], ","))
	}
	return b.String()
}

// removeRedundantMaterials merges materials with identical textures and drops
// unreferenced ones.
func removeRedundantMaterials(s *Scene) {
	if len(s.Materials) == 0 {
		return
	}
	used := make([]bool, len(s.Materials))
	for _, m := range s.Meshes {
		if m.Material >= 0 && m.Material < len(used) {
			used[m.Material] = true
		}
	}

	remap := make([]int, len(s.Materials))
	byKey := make(map[string]int)
	var kept []*Material
	for i, mat := range s.Materials {
		if !used[i] {
			remap[i] = -1
			continue
		}
		k := materialKey(mat)
		if j, ok := byKey[k]; ok {
			remap[i] = j
			continue
		}
		byKey[k] = len(kept)
		remap[i] = len(kept)
		kept = append(kept, mat)
	}
	s.Materials = kept
	for _, m := range s.Meshes {
		if m.Material >= 0 && m.Material < len(remap) {
			m.Material = remap[m.Material]
		}
	}
}

// mergeMeshes joins meshes referenced by the same node when they share a
// material and vertex layout. Meshes referenced by several nodes are left alone.
func mergeMeshes(s *Scene) {
	refs := make([]int, len(s.Meshes))
	s.Walk(func(n *Node) {
		for _, mi := range n.Meshes {
			if mi >= 0 && mi < len(refs) {
				refs[mi]++
			}
		}
	})

	merged := make([]bool, len(s.Meshes))
	s.Walk(func(n *Node) {
		var out []int
		target := make(map[[4]int]int) // material, layout -> mesh index
		for _, mi := range n.Meshes {
			if mi < 0 || mi >= len(s.Meshes) || refs[mi] != 1 {
				out = append(out, mi)
				continue
			}
			m := s.Meshes[mi]
			k := [4]int{m.Material, b2i(m.HasNormals()), b2i(m.HasTexCoords()), b2i(m.HasTangents())}
			if dst, ok := target[k]; ok {
				appendMesh(s.Meshes[dst], m)
				merged[mi] = true
				continue
			}
			target[k] = mi
			out = append(out, mi)
		}
		n.Meshes = out
	})

	keep := make(map[*Mesh]bool, len(s.Meshes))
	for i, m := range s.Meshes {
		keep[m] = !merged[i]
	}
	compactMeshes(s, func(m *Mesh) bool { return keep[m] })
}

func appendMesh(dst, src *Mesh) {
	base := uint32(len(dst.Positions))
	dst.Positions = append(dst.Positions, src.Positions...)
	if dst.Normals != nil {
		dst.Normals = append(dst.Normals, src.Normals...)
	}
	if dst.TexCoords != nil {
		dst.TexCoords = append(dst.TexCoords, src.TexCoords...)
	}
	if dst.Tangents != nil {
		dst.Tangents = append(dst.Tangents, src.Tangents...)
		dst.Bitangents = append(dst.Bitangents, src.Bitangents...)
	}
	for _, f := range src.Faces {
		nf := make([]uint32, len(f))
		for i, idx := range f {
			nf[i] = idx + base
		}
		dst.Faces = append(dst.Faces, nf)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
