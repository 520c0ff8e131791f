// Package shader wraps linked GPU programs behind typed uniform setters.
package shader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/shader/shaders"
)

// Uniforms is the uniform-set surface draw code needs from a program.
// Setting a name the program does not use is a no-op.
type Uniforms interface {
	SetBool(name string, v bool)
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec3(name string, v mgl32.Vec3)
	SetMat4(name string, m mgl32.Mat4)
}

// Program is a linked shader program with a uniform location cache.
type Program struct {
	dev  gpu.Device
	id   gpu.Program
	name string
	locs map[string]int32
}

var _ Uniforms = (*Program)(nil)

// New compiles and links a program from GLSL sources.
func New(dev gpu.Device, name, vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := dev.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("%s program: %w", name, err)
	}
	return &Program{
		dev:  dev,
		id:   id,
		name: name,
		locs: make(map[string]int32),
	}, nil
}

// ID returns the program handle.
func (p *Program) ID() gpu.Program { return p.id }

// Name returns the label given at creation.
func (p *Program) Name() string { return p.name }

// Use makes the program current.
func (p *Program) Use() {
	p.dev.UseProgram(p.id)
}

func (p *Program) location(name string) int32 {
	loc, ok := p.locs[name]
	if !ok {
		loc = p.dev.UniformLocation(p.id, name)
		p.locs[name] = loc
	}
	return loc
}

// SetBool sets a bool uniform as an int.
func (p *Program) SetBool(name string, v bool) {
	var i int32
	if v {
		i = 1
	}
	p.SetInt(name, i)
}

// SetInt sets an int or sampler uniform.
func (p *Program) SetInt(name string, v int32) {
	if loc := p.location(name); loc >= 0 {
		p.dev.Uniform1i(loc, v)
	}
}

// SetFloat sets a float uniform.
func (p *Program) SetFloat(name string, v float32) {
	if loc := p.location(name); loc >= 0 {
		p.dev.Uniform1f(loc, v)
	}
}

// SetVec3 sets a vec3 uniform.
func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.location(name); loc >= 0 {
		p.dev.Uniform3f(loc, v[0], v[1], v[2])
	}
}

// SetMat4 sets a mat4 uniform (column-major).
func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.location(name); loc >= 0 {
		a := [16]float32(m)
		p.dev.UniformMatrix4fv(loc, &a)
	}
}

// Destroy deletes the program. Safe to call twice.
func (p *Program) Destroy() {
	if p == nil || p.id == 0 {
		return
	}
	p.dev.DeleteProgram(p.id)
	p.id = 0
	p.locs = nil
}

// Set holds the programs the frame renderer uses.
type Set struct {
	Shadow *Program
	Lit    *Program
	Marker *Program
	Skybox *Program
}

// LoadSet compiles the built-in programs. On failure nothing is leaked.
func LoadSet(dev gpu.Device) (*Set, error) {
	s := &Set{}
	var err error
	if s.Shadow, err = New(dev, "shadow", shaders.ShadowDepthVertexShader, shaders.ShadowDepthFragmentShader); err != nil {
		return nil, err
	}
	if s.Lit, err = New(dev, "lit", shaders.LitVertexShader, shaders.LitFragmentShader); err != nil {
		s.Destroy()
		return nil, err
	}
	if s.Marker, err = New(dev, "marker", shaders.MarkerVertexShader, shaders.MarkerFragmentShader); err != nil {
		s.Destroy()
		return nil, err
	}
	if s.Skybox, err = New(dev, "skybox", shaders.SkyboxVertexShader, shaders.SkyboxFragmentShader); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// Destroy deletes every program in the set.
func (s *Set) Destroy() {
	s.Shadow.Destroy()
	s.Lit.Destroy()
	s.Marker.Destroy()
	s.Skybox.Destroy()
}
