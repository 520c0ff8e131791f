// Package gldevice implements gpu.Device on OpenGL 4.1 core.
package gldevice

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// Device issues gl calls. It must only be used on the thread owning the context.
type Device struct{}

var _ gpu.Device = (*Device)(nil)

// New loads GL function pointers for the current context.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	return &Device{}, nil
}

func bufferTarget(t gpu.BufferTarget) uint32 {
	if t == gpu.ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func textureTarget(t gpu.TextureTarget) uint32 {
	switch t {
	case gpu.TextureCubeMap:
		return gl.TEXTURE_CUBE_MAP
	case gpu.CubeMapPositiveX, gpu.CubeMapNegativeX, gpu.CubeMapPositiveY,
		gpu.CubeMapNegativeY, gpu.CubeMapPositiveZ, gpu.CubeMapNegativeZ:
		return gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(t-gpu.CubeMapPositiveX)
	default:
		return gl.TEXTURE_2D
	}
}

func pixelFormat(f gpu.PixelFormat) uint32 {
	switch f {
	case gpu.Red:
		return gl.RED
	case gpu.RGB:
		return gl.RGB
	case gpu.SRGB:
		return gl.SRGB
	case gpu.SRGBAlpha:
		return gl.SRGB_ALPHA
	default:
		return gl.RGBA
	}
}

func filter(f gpu.Filter) int32 {
	switch f {
	case gpu.Nearest:
		return gl.NEAREST
	case gpu.LinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}

func wrap(w gpu.Wrap) int32 {
	if w == gpu.ClampToEdge {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

func capability(c gpu.Capability) uint32 {
	switch c {
	case gpu.CullFace:
		return gl.CULL_FACE
	case gpu.Multisample:
		return gl.MULTISAMPLE
	default:
		return gl.DEPTH_TEST
	}
}

func (d *Device) CreateBuffer() gpu.Buffer {
	var id uint32
	gl.GenBuffers(1, &id)
	return gpu.Buffer(id)
}

func (d *Device) DeleteBuffer(b gpu.Buffer) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	gl.BindBuffer(bufferTarget(target), uint32(b))
}

func (d *Device) BufferData(target gpu.BufferTarget, size int, data unsafe.Pointer, usage gpu.Usage) {
	u := uint32(gl.STATIC_DRAW)
	if usage == gpu.DynamicDraw {
		u = gl.DYNAMIC_DRAW
	}
	gl.BufferData(bufferTarget(target), size, data, u)
}

func (d *Device) CreateVertexArray() gpu.VertexArray {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return gpu.VertexArray(id)
}

func (d *Device) DeleteVertexArray(v gpu.VertexArray) {
	id := uint32(v)
	gl.DeleteVertexArrays(1, &id)
}

func (d *Device) BindVertexArray(v gpu.VertexArray) {
	gl.BindVertexArray(uint32(v))
}

func (d *Device) VertexAttribPointer(index uint32, size int32, stride int32, offset uintptr) {
	gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, false, stride, offset)
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (d *Device) VertexAttribDivisor(index uint32, divisor uint32) {
	gl.VertexAttribDivisor(index, divisor)
}

func (d *Device) CreateTexture() gpu.Texture {
	var id uint32
	gl.GenTextures(1, &id)
	return gpu.Texture(id)
}

func (d *Device) DeleteTexture(t gpu.Texture) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) ActiveTexture(unit uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
}

func (d *Device) BindTexture(target gpu.TextureTarget, t gpu.Texture) {
	gl.BindTexture(textureTarget(target), uint32(t))
}

func (d *Device) TexImage2D(target gpu.TextureTarget, internal, format gpu.PixelFormat, width, height int32, pixels []byte) {
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	// Single-channel and RGB rows are not 4-byte aligned in general.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(textureTarget(target), 0, int32(pixelFormat(internal)), width, height, 0,
		pixelFormat(format), gl.UNSIGNED_BYTE, ptr)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
}

func (d *Device) GenerateMipmap(target gpu.TextureTarget) {
	gl.GenerateMipmap(textureTarget(target))
}

func (d *Device) TexParameters(target gpu.TextureTarget, p gpu.TexParams) {
	t := textureTarget(target)
	gl.TexParameteri(t, gl.TEXTURE_MIN_FILTER, filter(p.MinFilter))
	gl.TexParameteri(t, gl.TEXTURE_MAG_FILTER, filter(p.MagFilter))
	gl.TexParameteri(t, gl.TEXTURE_WRAP_S, wrap(p.WrapS))
	gl.TexParameteri(t, gl.TEXTURE_WRAP_T, wrap(p.WrapT))
	if target == gpu.TextureCubeMap {
		gl.TexParameteri(t, gl.TEXTURE_WRAP_R, wrap(p.WrapR))
	}
}

// CreateDepthMap builds a depth-only FBO. Samples outside the light frustum
// read depth 1.0 from the white border so they are never shadowed.
func (d *Device) CreateDepthMap(resolution int32) (gpu.Framebuffer, gpu.Texture, error) {
	var fbo, tex uint32
	gl.GenFramebuffers(1, &fbo)
	gl.GenTextures(1, &tex)

	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, resolution, resolution, 0,
		gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
	border := []float32{1, 1, 1, 1}
	gl.TexParameterfv(gl.TEXTURE_2D, gl.TEXTURE_BORDER_COLOR, &border[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, tex, 0)
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		gl.DeleteTextures(1, &tex)
		return 0, 0, fmt.Errorf("depth framebuffer incomplete: 0x%x", status)
	}
	return gpu.Framebuffer(fbo), gpu.Texture(tex), nil
}

func (d *Device) DeleteFramebuffer(f gpu.Framebuffer) {
	id := uint32(f)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) BindFramebuffer(f gpu.Framebuffer) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
}

func (d *Device) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (d *Device) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (d *Device) Clear(mask gpu.ClearMask) {
	var bits uint32
	if mask&gpu.ColorBuffer != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.DepthBuffer != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (d *Device) DepthFunc(fn gpu.DepthFunc) {
	if fn == gpu.LessEqual {
		gl.DepthFunc(gl.LEQUAL)
		return
	}
	gl.DepthFunc(gl.LESS)
}

func (d *Device) Enable(c gpu.Capability) {
	gl.Enable(capability(c))
}

func (d *Device) Disable(c gpu.Capability) {
	gl.Disable(capability(c))
}

func (d *Device) CullFace(f gpu.Face) {
	if f == gpu.Front {
		gl.CullFace(gl.FRONT)
		return
	}
	gl.CullFace(gl.BACK)
}

func (d *Device) PolygonMode(m gpu.PolygonMode) {
	if m == gpu.Line {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		return
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

func (d *Device) DeleteProgram(p gpu.Program) {
	gl.DeleteProgram(uint32(p))
}

func (d *Device) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
}

func (d *Device) UniformLocation(p gpu.Program, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) Uniform1i(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

func (d *Device) Uniform1f(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (d *Device) Uniform3f(loc int32, x, y, z float32) {
	gl.Uniform3f(loc, x, y, z)
}

func (d *Device) UniformMatrix4fv(loc int32, m *[16]float32) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

func (d *Device) DrawElementsInstanced(mode gpu.Primitive, count int32, instances int32) {
	gl.DrawElementsInstanced(gl.TRIANGLES, count, gl.UNSIGNED_INT, nil, instances)
}

func (d *Device) DrawArrays(mode gpu.Primitive, first, count int32) {
	gl.DrawArrays(gl.TRIANGLES, first, count)
}

func (d *Device) ReadPixels(x, y, width, height int32) []byte {
	pixels := make([]byte, int(width)*int(height)*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(x, y, width, height, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// CheckError drains glGetError and reports every pending code.
func (d *Device) CheckError() error {
	var err error
	for i, code := 0, gl.GetError(); code != gl.NO_ERROR && i < 16; i, code = i+1, gl.GetError() {
		err = multierr.Append(err, fmt.Errorf("gl error %s (0x%x)", errorName(code), code))
	}
	return err
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "INVALID_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "OUT_OF_MEMORY"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "INVALID_FRAMEBUFFER_OPERATION"
	default:
		return "UNKNOWN"
	}
}
