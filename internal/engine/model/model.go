package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/importer"
	"github.com/Faultbox/oglrenderer/internal/engine/shader"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// ErrImport is returned when an asset could not be imported. The model
// returned alongside it is valid and has no meshes.
var ErrImport = errors.New("model import failed")

// Model is a named set of meshes sharing one texture cache and one
// per-instance transform buffer.
type Model struct {
	Name     string
	BaseName string
	Path     string
	Meshes   []*Mesh
	Bounds   Bounds

	// HasTextures is true when any mesh carries a loaded albedo map.
	HasTextures bool

	dev       gpu.Device
	names     *Names
	textures  *texture.Cache
	instances gpu.Buffer

	refs atomic.Int32
}

// Loader imports asset files into models.
type Loader struct {
	Device   gpu.Device
	Importer importer.Importer
	Decoder  texture.Decoder
	Names    *Names
	Flags    importer.PostProcess
}

// NewLoader creates a loader using the glTF importer, the file decoder and
// the full post-process set.
func NewLoader(dev gpu.Device, names *Names) *Loader {
	return &Loader{
		Device:   dev,
		Importer: importer.GLTF{},
		Decoder:  texture.FileDecoder{},
		Names:    names,
		Flags:    importer.DefaultPostProcess,
	}
}

// BaseName derives a model base name from an asset path: the file name
// without its extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load imports path. On failure it logs, and returns an empty model together
// with an error wrapping ErrImport.
func (l *Loader) Load(path string) (*Model, error) {
	if name, ok := strings.CutPrefix(path, BuiltinPrefix); ok {
		return l.builtin(name)
	}

	m := l.newModel(BaseName(path))
	m.Path = path

	s, err := l.Importer.Import(path, l.Flags)
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		logger.Error("model import failed", zap.String("path", path), zap.Error(err))
		return m, fmt.Errorf("%w: %s: %v", ErrImport, path, err)
	}
	m.build(s, filepath.Dir(path))

	logger.Info("model loaded",
		zap.String("name", m.Name),
		zap.String("path", path),
		zap.Int("meshes", len(m.Meshes)),
		zap.Int("textures", m.textures.Len()),
		zap.Bool("hasTextures", m.HasTextures),
	)
	if terr := m.textures.Err(); terr != nil {
		logger.Warn("model has missing textures", zap.String("name", m.Name), zap.Error(terr))
	}
	return m, nil
}

// FromMeshes wraps prepared meshes into a model and uploads them.
func (l *Loader) FromMeshes(base string, meshes []*Mesh) *Model {
	m := l.newModel(base)
	for _, mesh := range meshes {
		for _, v := range mesh.Vertices {
			m.Bounds.extend(v.Position)
		}
		mesh.Upload(m.dev, m.instances)
		m.Meshes = append(m.Meshes, mesh)
	}
	return m
}

func (l *Loader) newModel(base string) *Model {
	m := &Model{
		Name:     l.Names.Next(base),
		BaseName: base,
		Bounds:   emptyBounds(),
		dev:      l.Device,
		names:    l.Names,
		textures: texture.NewCache(l.Device, l.Decoder),
	}
	m.instances = newInstanceBuffer(l.Device)
	return m
}

func (m *Model) build(s *importer.Scene, dir string) {
	perMaterial := make(map[int][]*texture.Texture)
	resolve := func(mat int) []*texture.Texture {
		if ts, ok := perMaterial[mat]; ok {
			return ts
		}
		var ts []*texture.Texture
		if mat >= 0 && mat < len(s.Materials) {
			ts = materialTextures(s, s.Materials[mat], dir, m.textures)
		}
		perMaterial[mat] = ts
		return ts
	}

	meshes, bounds := flatten(s, resolve)
	m.Bounds = bounds
	for _, mesh := range meshes {
		mesh.Upload(m.dev, m.instances)
		for _, t := range mesh.Textures {
			if t.Role == texture.Albedo && t.Loaded() {
				m.HasTextures = true
			}
		}
	}
	m.Meshes = meshes
}

// newInstanceBuffer creates a buffer seeded with one identity transform.
func newInstanceBuffer(dev gpu.Device) gpu.Buffer {
	b := dev.CreateBuffer()
	identity := mgl32.Ident4()
	dev.BindBuffer(gpu.ArrayBuffer, b)
	dev.BufferData(gpu.ArrayBuffer, int(instanceStride), unsafe.Pointer(&identity[0]), gpu.DynamicDraw)
	dev.BindBuffer(gpu.ArrayBuffer, 0)
	return b
}

// InstanceBuffer returns the per-instance transform buffer.
func (m *Model) InstanceBuffer() gpu.Buffer {
	return m.instances
}

// Textures returns the model's texture cache.
func (m *Model) Textures() *texture.Cache {
	return m.textures
}

// SetInstances replaces the instance buffer contents with transforms.
func (m *Model) SetInstances(transforms []mgl32.Mat4) {
	if m.instances == 0 || len(transforms) == 0 {
		return
	}
	m.dev.BindBuffer(gpu.ArrayBuffer, m.instances)
	m.dev.BufferData(gpu.ArrayBuffer, len(transforms)*int(instanceStride), unsafe.Pointer(&transforms[0]), gpu.DynamicDraw)
	m.dev.BindBuffer(gpu.ArrayBuffer, 0)
}

// Draw draws every mesh n times using the current instance buffer.
func (m *Model) Draw(u shader.Uniforms, n int) {
	u.SetBool("hasTextures", m.HasTextures)
	for _, mesh := range m.Meshes {
		mesh.DrawInstanced(u, n)
	}
}

// Clone returns an independent copy with a fresh name and its own GPU
// buffers. Textures are shared with the source.
func (m *Model) Clone() *Model {
	c := &Model{
		Name:        m.names.Next(m.BaseName),
		BaseName:    m.BaseName,
		Path:        m.Path,
		Bounds:      m.Bounds,
		HasTextures: m.HasTextures,
		dev:         m.dev,
		names:       m.names,
	}
	if m.textures != nil {
		c.textures = m.textures.Retain()
	}
	if m.dev != nil {
		c.instances = newInstanceBuffer(m.dev)
	}
	for _, mesh := range m.Meshes {
		c.Meshes = append(c.Meshes, mesh.Clone(c.instances))
	}
	return c
}

// MoveFrom frees m's resources and takes over src's meshes, textures and
// instance buffer. m keeps its name and references; src is left empty.
func (m *Model) MoveFrom(src *Model) {
	if m == src {
		return
	}
	m.release()

	m.Meshes, src.Meshes = src.Meshes, nil
	m.textures, src.textures = src.textures, nil
	m.instances, src.instances = src.instances, 0
	m.Bounds = src.Bounds
	m.HasTextures, src.HasTextures = src.HasTextures, false
	if src.dev != nil {
		m.dev = src.dev
	}
	if src.Path != "" {
		m.Path = src.Path
	}
}

// Destroy frees the GPU resources. It is safe to call more than once.
func (m *Model) Destroy() {
	m.release()
}

func (m *Model) release() {
	for _, mesh := range m.Meshes {
		mesh.Release()
	}
	m.Meshes = nil
	if m.instances != 0 {
		m.dev.DeleteBuffer(m.instances)
		m.instances = 0
	}
	if m.textures != nil {
		m.textures.Release()
		m.textures = nil
	}
	m.HasTextures = false
}

// Retain records a scene object referencing the model.
func (m *Model) Retain() {
	m.refs.Add(1)
}

// Drop removes a reference and returns the remaining count.
func (m *Model) Drop() int32 {
	n := m.refs.Add(-1)
	if n < 0 {
		m.refs.Store(0)
		return 0
	}
	return n
}

// Refs returns the number of live references.
func (m *Model) Refs() int32 {
	return m.refs.Load()
}

// Empty reports whether the model has nothing to draw.
func (m *Model) Empty() bool {
	return len(m.Meshes) == 0
}
