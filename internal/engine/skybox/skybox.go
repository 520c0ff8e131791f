// Package skybox draws a cubemap behind everything else in the frame.
package skybox

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/shader"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// VertexCount is the number of vertices in the cube triangle list.
const VertexCount = 36

var cubeVertices = [VertexCount * 3]float32{
	-1, 1, -1, -1, -1, -1, 1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
	-1, -1, 1, -1, -1, -1, -1, 1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1,
	1, -1, -1, 1, -1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, 1, -1, -1,
	-1, -1, 1, -1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, 1, -1, -1, 1,
	-1, 1, -1, 1, 1, -1, 1, 1, 1, 1, 1, 1, -1, 1, 1, -1, 1, -1,
	-1, -1, -1, -1, -1, 1, 1, -1, -1, 1, -1, -1, -1, -1, 1, 1, -1, 1,
}

// Skybox owns the cube geometry and the cubemap texture.
type Skybox struct {
	dev     gpu.Device
	vao     gpu.VertexArray
	vbo     gpu.Buffer
	cubemap gpu.Texture
}

// New loads the six faces, or builds a gradient sky from clear when faces
// is all empty or fails to load.
func New(dev gpu.Device, dec texture.Decoder, faces [6]string, clear mgl32.Vec3) (*Skybox, error) {
	tex, err := loadFaces(dev, dec, faces, clear)
	if err != nil {
		return nil, err
	}
	s := &Skybox{dev: dev, cubemap: tex}

	s.vao = dev.CreateVertexArray()
	s.vbo = dev.CreateBuffer()
	dev.BindVertexArray(s.vao)
	dev.BindBuffer(gpu.ArrayBuffer, s.vbo)
	dev.BufferData(gpu.ArrayBuffer, len(cubeVertices)*4, unsafe.Pointer(&cubeVertices[0]), gpu.StaticDraw)
	dev.EnableVertexAttribArray(0)
	dev.VertexAttribPointer(0, 3, 3*4, 0)
	dev.BindVertexArray(0)
	return s, nil
}

func loadFaces(dev gpu.Device, dec texture.Decoder, faces [6]string, clear mgl32.Vec3) (gpu.Texture, error) {
	if faces != [6]string{} {
		tex, err := texture.LoadCubemap(dev, dec, faces)
		if err == nil {
			return tex, nil
		}
		logger.Warn("skybox faces failed, using generated sky", zap.Error(err))
	}
	tex, err := texture.UploadCubemap(dev, GradientFaces(clear, 16))
	if err != nil {
		return 0, fmt.Errorf("generated sky: %w", err)
	}
	return tex, nil
}

// Cubemap returns the sky texture.
func (s *Skybox) Cubemap() gpu.Texture {
	return s.cubemap
}

// Draw renders the sky at maximum depth. Translation is stripped from view
// so the sky stays infinitely far. Depth testing is left at LESS.
func (s *Skybox) Draw(p *shader.Program, view, projection mgl32.Mat4) {
	s.dev.DepthFunc(gpu.LessEqual)
	p.Use()
	p.SetMat4("view", view.Mat3().Mat4())
	p.SetMat4("projection", projection)
	p.SetInt("skybox", 0)

	s.dev.ActiveTexture(0)
	s.dev.BindTexture(gpu.TextureCubeMap, s.cubemap)
	s.dev.BindVertexArray(s.vao)
	s.dev.DrawArrays(gpu.Triangles, 0, VertexCount)
	s.dev.BindVertexArray(0)
	s.dev.DepthFunc(gpu.Less)
}

// Destroy releases the geometry and texture.
func (s *Skybox) Destroy() {
	if s == nil || s.dev == nil {
		return
	}
	if s.vao != 0 {
		s.dev.DeleteVertexArray(s.vao)
		s.vao = 0
	}
	if s.vbo != 0 {
		s.dev.DeleteBuffer(s.vbo)
		s.vbo = 0
	}
	if s.cubemap != 0 {
		s.dev.DeleteTexture(s.cubemap)
		s.cubemap = 0
	}
}
