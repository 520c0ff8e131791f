// Package gpu defines the graphics context the engine renders through.
//
// Engine packages talk to a Device instead of calling OpenGL directly. The
// gldevice package backs it with go-gl on the render thread; gputest backs it
// with an in-memory recorder for tests. Every method must be called from the
// thread that owns the GL context.
package gpu

import (
	"fmt"
	"unsafe"
)

// Object handles. Zero is never a live object.
type (
	Buffer      uint32
	VertexArray uint32
	Texture     uint32
	Framebuffer uint32
	Program     uint32
)

// DefaultFramebuffer is the window's backbuffer.
const DefaultFramebuffer Framebuffer = 0

// BufferTarget selects a buffer binding point.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// Usage hints how often buffer contents change.
type Usage int

const (
	StaticDraw Usage = iota
	DynamicDraw
)

// TextureTarget selects a texture binding point or cube face.
type TextureTarget int

const (
	Texture2D TextureTarget = iota
	TextureCubeMap
	CubeMapPositiveX
	CubeMapNegativeX
	CubeMapPositiveY
	CubeMapNegativeY
	CubeMapPositiveZ
	CubeMapNegativeZ
)

// CubeFace returns the upload target for face i in +X, -X, +Y, -Y, +Z, -Z order.
func CubeFace(i int) TextureTarget {
	if i < 0 || i > 5 {
		panic(fmt.Sprintf("gpu: cube face %d out of range", i))
	}
	return CubeMapPositiveX + TextureTarget(i)
}

// PixelFormat describes both internal and client pixel layouts.
type PixelFormat int

const (
	Red PixelFormat = iota
	RGB
	RGBA
	SRGB      // internal only
	SRGBAlpha // internal only
)

// FormatForChannels maps a decoded channel count to a client pixel format.
func FormatForChannels(channels int) (PixelFormat, error) {
	switch channels {
	case 1:
		return Red, nil
	case 3:
		return RGB, nil
	case 4:
		return RGBA, nil
	default:
		return 0, fmt.Errorf("unsupported channel count %d", channels)
	}
}

// Filter is a texture sampling filter.
type Filter int

const (
	Linear Filter = iota
	Nearest
	LinearMipmapLinear
)

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	Repeat Wrap = iota
	ClampToEdge
)

// TexParams groups the sampler state set on a texture.
type TexParams struct {
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
	WrapR     Wrap
}

// ClearMask selects buffers to clear.
type ClearMask int

const (
	ColorBuffer ClearMask = 1 << iota
	DepthBuffer
)

// DepthFunc is the depth comparison function.
type DepthFunc int

const (
	Less DepthFunc = iota
	LessEqual
)

// Capability is a server-side toggle for Enable/Disable.
type Capability int

const (
	DepthTest Capability = iota
	CullFace
	Multisample
)

// Face selects polygon faces for culling.
type Face int

const (
	Back Face = iota
	Front
)

// PolygonMode selects rasterization of polygons.
type PolygonMode int

const (
	Fill PolygonMode = iota
	Line
)

// Primitive is a draw topology.
type Primitive int

const (
	Triangles Primitive = iota
)

// Device is a current graphics context.
type Device interface {
	CreateBuffer() Buffer
	DeleteBuffer(b Buffer)
	BindBuffer(target BufferTarget, b Buffer)
	// BufferData replaces the whole store of the bound buffer.
	BufferData(target BufferTarget, size int, data unsafe.Pointer, usage Usage)

	CreateVertexArray() VertexArray
	DeleteVertexArray(v VertexArray)
	BindVertexArray(v VertexArray)
	// VertexAttribPointer describes float attribute index on the bound array buffer.
	VertexAttribPointer(index uint32, size int32, stride int32, offset uintptr)
	EnableVertexAttribArray(index uint32)
	VertexAttribDivisor(index uint32, divisor uint32)

	CreateTexture() Texture
	DeleteTexture(t Texture)
	ActiveTexture(unit uint32)
	BindTexture(target TextureTarget, t Texture)
	TexImage2D(target TextureTarget, internal, format PixelFormat, width, height int32, pixels []byte)
	GenerateMipmap(target TextureTarget)
	TexParameters(target TextureTarget, p TexParams)

	// CreateDepthMap allocates a depth-only framebuffer with a square depth texture.
	CreateDepthMap(resolution int32) (Framebuffer, Texture, error)
	DeleteFramebuffer(f Framebuffer)
	BindFramebuffer(f Framebuffer)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	DepthFunc(fn DepthFunc)
	Enable(c Capability)
	Disable(c Capability)
	CullFace(f Face)
	PolygonMode(m PolygonMode)

	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	DeleteProgram(p Program)
	UseProgram(p Program)
	// UniformLocation returns -1 for names the program does not use.
	UniformLocation(p Program, name string) int32
	Uniform1i(loc int32, v int32)
	Uniform1f(loc int32, v float32)
	Uniform3f(loc int32, x, y, z float32)
	UniformMatrix4fv(loc int32, m *[16]float32)

	DrawElementsInstanced(mode Primitive, count int32, instances int32)
	DrawArrays(mode Primitive, first, count int32)

	// ReadPixels returns RGBA rows of the bound framebuffer, bottom row first.
	ReadPixels(x, y, width, height int32) []byte
	// CheckError drains the context's error queue.
	CheckError() error
}
