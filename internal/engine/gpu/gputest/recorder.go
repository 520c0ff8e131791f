// Package gputest provides an in-memory gpu.Device for tests.
package gputest

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
)

// Call is one recorded device call.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

type kind int

const (
	kindBuffer kind = iota
	kindVertexArray
	kindTexture
	kindFramebuffer
	kindProgram
)

func (k kind) String() string {
	return [...]string{"buffer", "vertex array", "texture", "framebuffer", "program"}[k]
}

type handle struct {
	kind kind
	id   uint32
}

// Recorder implements gpu.Device by recording calls. Handles are allocated
// from one counter shared by all object kinds, so a handle is never reused.
type Recorder struct {
	mu sync.Mutex

	calls   []Call
	next    uint32
	live    map[handle]bool
	faults  []error
	buffers map[gpu.Buffer][]byte

	boundArray   gpu.Buffer
	boundElement gpu.Buffer
	program      gpu.Program
	locs         map[gpu.Program]map[string]int32
	locNames     map[int32]string
	uniforms     map[gpu.Program]map[string]any

	// FailPrograms makes CompileProgram return an error.
	FailPrograms bool
	// FailDepthMap makes CreateDepthMap return an error.
	FailDepthMap bool
}

var _ gpu.Device = (*Recorder)(nil)

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		live:     make(map[handle]bool),
		buffers:  make(map[gpu.Buffer][]byte),
		locs:     make(map[gpu.Program]map[string]int32),
		locNames: make(map[int32]string),
		uniforms: make(map[gpu.Program]map[string]any),
	}
}

func (r *Recorder) record(op string, args ...any) {
	r.calls = append(r.calls, Call{Op: op, Args: args})
}

func (r *Recorder) alloc(k kind) uint32 {
	r.next++
	r.live[handle{k, r.next}] = true
	return r.next
}

func (r *Recorder) free(k kind, id uint32) {
	if id == 0 {
		return
	}
	h := handle{k, id}
	if !r.live[h] {
		r.faults = append(r.faults, fmt.Errorf("delete of unknown or freed %s %d", k, id))
		return
	}
	delete(r.live, h)
}

// Calls returns a copy of the trace.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the op names of the trace in order.
func (r *Recorder) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, len(r.calls))
	for i, c := range r.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Find returns trace indices of calls matching op and, if given, equal leading args.
func (r *Recorder) Find(op string, args ...any) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var idx []int
	for i, c := range r.calls {
		if c.Op != op || len(c.Args) < len(args) {
			continue
		}
		match := true
		for j, a := range args {
			if c.Args[j] != a {
				match = false
				break
			}
		}
		if match {
			idx = append(idx, i)
		}
	}
	return idx
}

// Reset clears the trace but keeps object and uniform state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Live returns the number of objects created and not yet deleted.
func (r *Recorder) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// IsLive reports whether id is a live object of any kind.
func (r *Recorder) IsLive(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h := range r.live {
		if h.id == id {
			return true
		}
	}
	return false
}

// Err returns lifetime faults such as double deletes, joined.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.faults...)
}

// BufferContents returns the last data uploaded to b.
func (r *Recorder) BufferContents(b gpu.Buffer) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffers[b]
}

// Uniform returns the last value set for name on p, or nil.
func (r *Recorder) Uniform(p gpu.Program, name string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uniforms[p][name]
}

// UniformNames returns the sorted names set on p.
func (r *Recorder) UniformNames(p gpu.Program) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.uniforms[p]))
	for n := range r.uniforms[p] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Recorder) CreateBuffer() gpu.Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := gpu.Buffer(r.alloc(kindBuffer))
	r.record("CreateBuffer", b)
	return b
}

func (r *Recorder) DeleteBuffer(b gpu.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteBuffer", b)
	r.free(kindBuffer, uint32(b))
	delete(r.buffers, b)
}

func (r *Recorder) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("BindBuffer", target, b)
	if target == gpu.ArrayBuffer {
		r.boundArray = b
	} else {
		r.boundElement = b
	}
}

func (r *Recorder) BufferData(target gpu.BufferTarget, size int, data unsafe.Pointer, usage gpu.Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.boundArray
	if target == gpu.ElementArrayBuffer {
		b = r.boundElement
	}
	r.record("BufferData", target, b, size, usage)
	if b == 0 {
		r.faults = append(r.faults, errors.New("BufferData with no buffer bound"))
		return
	}
	var cp []byte
	if data != nil && size > 0 {
		cp = append(cp, unsafe.Slice((*byte)(data), size)...)
	}
	r.buffers[b] = cp
}

func (r *Recorder) CreateVertexArray() gpu.VertexArray {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := gpu.VertexArray(r.alloc(kindVertexArray))
	r.record("CreateVertexArray", v)
	return v
}

func (r *Recorder) DeleteVertexArray(v gpu.VertexArray) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteVertexArray", v)
	r.free(kindVertexArray, uint32(v))
}

func (r *Recorder) BindVertexArray(v gpu.VertexArray) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("BindVertexArray", v)
}

func (r *Recorder) VertexAttribPointer(index uint32, size int32, stride int32, offset uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("VertexAttribPointer", index, size, stride, offset, r.boundArray)
}

func (r *Recorder) EnableVertexAttribArray(index uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("EnableVertexAttribArray", index)
}

func (r *Recorder) VertexAttribDivisor(index uint32, divisor uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("VertexAttribDivisor", index, divisor)
}

func (r *Recorder) CreateTexture() gpu.Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := gpu.Texture(r.alloc(kindTexture))
	r.record("CreateTexture", t)
	return t
}

func (r *Recorder) DeleteTexture(t gpu.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteTexture", t)
	r.free(kindTexture, uint32(t))
}

func (r *Recorder) ActiveTexture(unit uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("ActiveTexture", unit)
}

func (r *Recorder) BindTexture(target gpu.TextureTarget, t gpu.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("BindTexture", target, t)
}

func (r *Recorder) TexImage2D(target gpu.TextureTarget, internal, format gpu.PixelFormat, width, height int32, pixels []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("TexImage2D", target, internal, format, width, height)
}

func (r *Recorder) GenerateMipmap(target gpu.TextureTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("GenerateMipmap", target)
}

func (r *Recorder) TexParameters(target gpu.TextureTarget, p gpu.TexParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("TexParameters", target, p)
}

func (r *Recorder) CreateDepthMap(resolution int32) (gpu.Framebuffer, gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailDepthMap {
		r.record("CreateDepthMap", resolution, "failed")
		return 0, 0, errors.New("framebuffer incomplete")
	}
	fb := gpu.Framebuffer(r.alloc(kindFramebuffer))
	tex := gpu.Texture(r.alloc(kindTexture))
	r.record("CreateDepthMap", resolution, fb, tex)
	return fb, tex, nil
}

func (r *Recorder) DeleteFramebuffer(f gpu.Framebuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteFramebuffer", f)
	r.free(kindFramebuffer, uint32(f))
}

func (r *Recorder) BindFramebuffer(f gpu.Framebuffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("BindFramebuffer", f)
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Viewport", x, y, width, height)
}

func (r *Recorder) ClearColor(red, green, blue, alpha float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("ClearColor", red, green, blue, alpha)
}

func (r *Recorder) Clear(mask gpu.ClearMask) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Clear", mask)
}

func (r *Recorder) DepthFunc(fn gpu.DepthFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DepthFunc", fn)
}

func (r *Recorder) Enable(c gpu.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Enable", c)
}

func (r *Recorder) Disable(c gpu.Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("Disable", c)
}

func (r *Recorder) CullFace(f gpu.Face) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CullFace", f)
}

func (r *Recorder) PolygonMode(m gpu.PolygonMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("PolygonMode", m)
}

func (r *Recorder) CompileProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailPrograms {
		r.record("CompileProgram", "failed")
		return 0, errors.New("link: simulated failure")
	}
	p := gpu.Program(r.alloc(kindProgram))
	r.record("CompileProgram", p)
	return p, nil
}

func (r *Recorder) DeleteProgram(p gpu.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DeleteProgram", p)
	r.free(kindProgram, uint32(p))
}

func (r *Recorder) UseProgram(p gpu.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("UseProgram", p)
	r.program = p
}

// UniformLocation hands out a distinct location per program and name.
func (r *Recorder) UniformLocation(p gpu.Program, name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.locs[p]
	if m == nil {
		m = make(map[string]int32)
		r.locs[p] = m
	}
	loc, ok := m[name]
	if !ok {
		loc = int32(len(r.locNames))
		m[name] = loc
		r.locNames[loc] = name
	}
	return loc
}

func (r *Recorder) setUniform(op string, loc int32, v any) {
	name, ok := r.locNames[loc]
	r.record(op, name, v)
	if loc < 0 || !ok {
		return
	}
	if r.program == 0 {
		r.faults = append(r.faults, fmt.Errorf("%s(%s) with no program in use", op, name))
		return
	}
	m := r.uniforms[r.program]
	if m == nil {
		m = make(map[string]any)
		r.uniforms[r.program] = m
	}
	m[name] = v
}

func (r *Recorder) Uniform1i(loc int32, v int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setUniform("Uniform1i", loc, v)
}

func (r *Recorder) Uniform1f(loc int32, v float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setUniform("Uniform1f", loc, v)
}

func (r *Recorder) Uniform3f(loc int32, x, y, z float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setUniform("Uniform3f", loc, [3]float32{x, y, z})
}

func (r *Recorder) UniformMatrix4fv(loc int32, m *[16]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setUniform("UniformMatrix4fv", loc, *m)
}

func (r *Recorder) DrawElementsInstanced(mode gpu.Primitive, count int32, instances int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DrawElementsInstanced", count, instances)
}

func (r *Recorder) DrawArrays(mode gpu.Primitive, first, count int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("DrawArrays", first, count)
}

func (r *Recorder) ReadPixels(x, y, width, height int32) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("ReadPixels", x, y, width, height)
	return make([]byte, int(width)*int(height)*4)
}

func (r *Recorder) CheckError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("CheckError")
	return nil
}
