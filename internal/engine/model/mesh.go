package model

import (
	"unsafe"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/shader"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
)

// Mesh is one drawable piece of a model: interleaved vertices, triangle
// indices and the textures bound while drawing it.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Textures []*texture.Texture

	dev gpu.Device
	vao gpu.VertexArray
	vbo gpu.Buffer
	ebo gpu.Buffer
}

// NewMesh creates a mesh with no GPU objects yet.
func NewMesh(vertices []Vertex, indices []uint32, textures []*texture.Texture) *Mesh {
	return &Mesh{Vertices: vertices, Indices: indices, Textures: textures}
}

// Uploaded reports whether the mesh owns live GPU objects.
func (m *Mesh) Uploaded() bool {
	return m.vao != 0
}

// VertexArray returns the mesh's vertex array, or zero.
func (m *Mesh) VertexArray() gpu.VertexArray {
	return m.vao
}

// Upload creates the vertex array and buffers and attaches the owning
// model's instance buffer at attribute slots 5 to 8.
func (m *Mesh) Upload(dev gpu.Device, instances gpu.Buffer) {
	if m.Uploaded() {
		m.Release()
	}
	m.dev = dev
	m.vao = dev.CreateVertexArray()
	m.vbo = dev.CreateBuffer()
	m.ebo = dev.CreateBuffer()

	dev.BindVertexArray(m.vao)

	dev.BindBuffer(gpu.ArrayBuffer, m.vbo)
	var vp unsafe.Pointer
	if len(m.Vertices) > 0 {
		vp = unsafe.Pointer(&m.Vertices[0])
	}
	dev.BufferData(gpu.ArrayBuffer, len(m.Vertices)*int(VertexStride), vp, gpu.StaticDraw)

	dev.BindBuffer(gpu.ElementArrayBuffer, m.ebo)
	var ip unsafe.Pointer
	if len(m.Indices) > 0 {
		ip = unsafe.Pointer(&m.Indices[0])
	}
	dev.BufferData(gpu.ElementArrayBuffer, len(m.Indices)*4, ip, gpu.StaticDraw)

	attribs := []struct {
		index  uint32
		size   int32
		offset uintptr
	}{
		{AttribPosition, 3, offsetPosition},
		{AttribNormal, 3, offsetNormal},
		{AttribTexCoord, 2, offsetTexCoord},
		{AttribTangent, 3, offsetTangent},
		{AttribBitangent, 3, offsetBitangent},
	}
	for _, a := range attribs {
		dev.EnableVertexAttribArray(a.index)
		dev.VertexAttribPointer(a.index, a.size, VertexStride, a.offset)
	}

	// mat4 per instance, one vec4 column per slot
	dev.BindBuffer(gpu.ArrayBuffer, instances)
	for i := uint32(0); i < 4; i++ {
		slot := AttribInstance + i
		dev.EnableVertexAttribArray(slot)
		dev.VertexAttribPointer(slot, 4, instanceStride, uintptr(i)*16)
		dev.VertexAttribDivisor(slot, 1)
	}

	dev.BindVertexArray(0)
}

// DrawInstanced binds the mesh textures to their role units, sets the
// per-role presence flags and draws n instances.
func (m *Mesh) DrawInstanced(u shader.Uniforms, n int) {
	if !m.Uploaded() || n <= 0 {
		return
	}

	var present [texture.NumRoles]bool
	for _, t := range m.Textures {
		if t == nil || !t.Loaded() || t.Role < 0 || t.Role >= texture.NumRoles {
			continue
		}
		b := t.Role.Binding()
		m.dev.ActiveTexture(b.Unit)
		m.dev.BindTexture(gpu.Texture2D, t.ID)
		u.SetInt(b.Sampler, int32(b.Unit))
		present[t.Role] = true
	}
	for _, r := range texture.Roles() {
		u.SetBool(r.Binding().Flag, present[r])
	}

	m.dev.BindVertexArray(m.vao)
	m.dev.DrawElementsInstanced(gpu.Triangles, int32(len(m.Indices)), int32(n))
	m.dev.BindVertexArray(0)
	m.dev.ActiveTexture(0)
}

// Clone copies the CPU data and shares the texture references. The copy is
// uploaded against instances when the source was uploaded.
func (m *Mesh) Clone(instances gpu.Buffer) *Mesh {
	c := &Mesh{
		Vertices: append([]Vertex(nil), m.Vertices...),
		Indices:  append([]uint32(nil), m.Indices...),
		Textures: append([]*texture.Texture(nil), m.Textures...),
	}
	if m.Uploaded() {
		c.Upload(m.dev, instances)
	}
	return c
}

// MoveFrom releases m's GPU objects and takes over src's data and objects.
// src is left empty.
func (m *Mesh) MoveFrom(src *Mesh) {
	if m == src {
		return
	}
	m.Release()
	*m = *src
	*src = Mesh{}
}

// Release deletes the GPU objects. Calling it again is a no-op.
func (m *Mesh) Release() {
	if m.dev == nil {
		return
	}
	if m.vao != 0 {
		m.dev.DeleteVertexArray(m.vao)
	}
	if m.vbo != 0 {
		m.dev.DeleteBuffer(m.vbo)
	}
	if m.ebo != 0 {
		m.dev.DeleteBuffer(m.ebo)
	}
	m.vao, m.vbo, m.ebo = 0, 0, 0
}
