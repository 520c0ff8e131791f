// Package renderer draws a scene each frame as a fixed sequence of passes:
// shadow depth, lit forward, then skybox.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/lighting"
	"github.com/Faultbox/oglrenderer/internal/engine/scene"
	"github.com/Faultbox/oglrenderer/internal/engine/shader"
	"github.com/Faultbox/oglrenderer/internal/engine/shadow"
	"github.com/Faultbox/oglrenderer/internal/engine/skybox"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// ErrPassOrder is returned when a pass runs out of sequence.
var ErrPassOrder = errors.New("render pass out of order")

// Pass is the renderer's position within a frame.
type Pass int

const (
	PassIdle Pass = iota
	PassShadow
	PassLit
	PassSkybox
	PassDone
)

func (p Pass) String() string {
	switch p {
	case PassIdle:
		return "idle"
	case PassShadow:
		return "shadow"
	case PassLit:
		return "lit"
	case PassSkybox:
		return "skybox"
	case PassDone:
		return "done"
	}
	return fmt.Sprintf("Pass(%d)", int(p))
}

// Options holds renderer configuration.
type Options struct {
	Width  int32
	Height int32

	ShadowResolution int32
	// Shadow is the light volume. A zero Extent fits the volume to the
	// visible objects every frame.
	Shadow shadow.Projection

	ClearColor mgl32.Vec3

	DefaultAlbedo    float32
	DefaultMetallic  float32
	DefaultRoughness float32
	DefaultAO        float32

	UseNormalMaps bool
	Wireframe     bool
	MarkerScale   float32
}

// DefaultOptions returns the settings used when no config overrides them.
func DefaultOptions() Options {
	return Options{
		Width:            1280,
		Height:           720,
		ShadowResolution: shadow.DefaultResolution,
		Shadow:           shadow.Projection{Extent: 10, Near: 1, Far: 50, Distance: 10},
		ClearColor:       mgl32.Vec3{0.529, 0.808, 0.922},
		DefaultAlbedo:    0.8,
		DefaultRoughness: 0.5,
		DefaultAO:        1,
		UseNormalMaps:    true,
		MarkerScale:      0.2,
	}
}

// Frame is everything one Render call needs.
type Frame struct {
	Scene      *scene.Scene
	View       mgl32.Mat4
	Projection mgl32.Mat4
	CameraPos  mgl32.Vec3
}

// Stats describes the last rendered frame.
type Stats struct {
	Batches   int
	Instances int
	Markers   int
	Orphans   int
}

// Renderer handles all frame rendering.
type Renderer struct {
	dev      gpu.Device
	opts     Options
	programs *shader.Set
	shadow   *shadow.Map
	sky      *skybox.Skybox

	// fallback lights scenes that carry no rig.
	fallback *lighting.Rig
	rig      *lighting.Rig

	pass       Pass
	lightSpace mgl32.Mat4
	stats      Stats
	lastOrphan string
}

// New compiles the programs and creates the shadow map and a generated sky.
// Must be called with the GL context current.
func New(dev gpu.Device, opts Options) (*Renderer, error) {
	r := &Renderer{dev: dev, opts: opts, fallback: lighting.NewRig()}

	var err error
	if r.programs, err = shader.LoadSet(dev); err != nil {
		return nil, fmt.Errorf("loading programs: %w", err)
	}
	if r.shadow, err = shadow.NewMap(dev, opts.ShadowResolution); err != nil {
		r.Destroy()
		return nil, err
	}
	if r.sky, err = skybox.New(dev, nil, [6]string{}, opts.ClearColor); err != nil {
		r.Destroy()
		return nil, err
	}

	logger.Info("renderer ready",
		zap.Int32("width", opts.Width),
		zap.Int32("height", opts.Height),
		zap.Int32("shadowResolution", r.shadow.Resolution),
	)
	return r, nil
}

// LoadSkybox replaces the sky with the given cubemap faces. All-empty faces
// select the generated sky.
func (r *Renderer) LoadSkybox(dec texture.Decoder, faces [6]string) error {
	sky, err := skybox.New(r.dev, dec, faces, r.opts.ClearColor)
	if err != nil {
		return err
	}
	r.sky.Destroy()
	r.sky = sky
	return nil
}

// Options returns the current options.
func (r *Renderer) Options() Options {
	return r.opts
}

// SetWireframe toggles line rasterization in the lit pass.
func (r *Renderer) SetWireframe(on bool) {
	r.opts.Wireframe = on
}

// SetNormalMaps toggles normal mapping in the lit pass.
func (r *Renderer) SetNormalMaps(on bool) {
	r.opts.UseNormalMaps = on
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int32) {
	r.opts.Width = width
	r.opts.Height = height
	r.dev.Viewport(0, 0, width, height)
	logger.Debug("renderer resized",
		zap.Int32("width", width),
		zap.Int32("height", height),
	)
}

// Pass returns the pass the renderer last entered.
func (r *Renderer) Pass() Pass {
	return r.pass
}

// LightSpace returns the light-space transform of the last shadow pass.
func (r *Renderer) LightSpace() mgl32.Mat4 {
	return r.lightSpace
}

// Stats returns counters for the last frame.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// ShadowMap returns the shadow depth target.
func (r *Renderer) ShadowMap() *shadow.Map {
	return r.shadow
}

// Render draws one frame. Objects without a model are skipped and logged.
func (r *Renderer) Render(f Frame) error {
	if f.Scene == nil {
		return errors.New("render: nil scene")
	}
	r.pass = PassIdle
	r.stats = Stats{}
	r.rig = f.Scene.Lights
	if r.rig == nil {
		r.rig = r.fallback
	}

	batches, err := f.Scene.Batches()
	r.reportOrphans(err)
	r.stats.Batches = len(batches)
	r.stats.Instances = scene.Instances(batches)

	if err := r.shadowPass(f, batches); err != nil {
		return err
	}
	if err := r.litPass(f, batches); err != nil {
		return err
	}
	if err := r.skyboxPass(f); err != nil {
		return err
	}
	return r.enter(PassDone)
}

func (r *Renderer) enter(p Pass) error {
	if p != r.pass+1 {
		err := fmt.Errorf("%w: %s after %s", ErrPassOrder, p, r.pass)
		logger.Error("render pass rejected", zap.Error(err))
		return err
	}
	r.pass = p
	return nil
}

func (r *Renderer) reportOrphans(err error) {
	if err == nil {
		r.lastOrphan = ""
		return
	}
	r.stats.Orphans = countErrors(err)
	if msg := err.Error(); msg != r.lastOrphan {
		r.lastOrphan = msg
		logger.Warn("scene objects without a model skipped", zap.Int("count", r.stats.Orphans), zap.Error(err))
	}
}

func (r *Renderer) shadowPass(f Frame, batches []scene.Batch) error {
	if err := r.enter(PassShadow); err != nil {
		return err
	}

	proj, target := r.opts.Shadow, mgl32.Vec3{}
	if proj.Extent <= 0 {
		if b, ok := worldBounds(batches); ok {
			proj, target = shadow.Fit(b), b.Center()
		} else {
			proj = shadow.Fit(shadow.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}})
		}
	}
	r.lightSpace = shadow.LightSpaceMatrix(r.rig.Sun.Dir(), target, proj)

	p := r.programs.Shadow
	p.Use()
	p.SetMat4("lightSpaceMatrix", r.lightSpace)

	r.shadow.Bind()
	scene.Flush(p, batches)
	r.shadow.Unbind(r.opts.Width, r.opts.Height)
	return nil
}

func (r *Renderer) litPass(f Frame, batches []scene.Batch) error {
	if err := r.enter(PassLit); err != nil {
		return err
	}

	c := r.opts.ClearColor
	r.dev.ClearColor(c.X(), c.Y(), c.Z(), 1)
	r.dev.Clear(gpu.ColorBuffer | gpu.DepthBuffer)
	if r.opts.Wireframe {
		r.dev.PolygonMode(gpu.Line)
	}

	p := r.programs.Lit
	p.Use()
	p.SetVec3("camPos", f.CameraPos)
	p.SetMat4("view", f.View)
	p.SetMat4("projection", f.Projection)
	p.SetMat4("lightSpaceMatrix", r.lightSpace)
	r.rig.Apply(p)

	p.SetFloat("defaultAlbedo", r.opts.DefaultAlbedo)
	p.SetFloat("defaultMetallic", r.opts.DefaultMetallic)
	p.SetFloat("defaultRoughness", r.opts.DefaultRoughness)
	p.SetFloat("defaultAO", r.opts.DefaultAO)
	p.SetBool("useNormalMaps", r.opts.UseNormalMaps)

	r.shadow.BindTexture(texture.ShadowUnit)
	p.SetInt("shadowMap", texture.ShadowUnit)

	scene.Flush(p, batches)
	r.drawMarkers(f)

	if r.opts.Wireframe {
		r.dev.PolygonMode(gpu.Fill)
	}
	return nil
}

// drawMarkers draws one small sphere per point light in the light's color.
func (r *Renderer) drawMarkers(f Frame) {
	b, ok := f.Scene.MarkerBatch(r.opts.MarkerScale)
	if !ok {
		return
	}
	p := r.programs.Marker
	p.Use()
	p.SetMat4("view", f.View)
	p.SetMat4("projection", f.Projection)

	lights := r.rig.Points.Lights
	for i, t := range b.Transforms {
		p.SetVec3("lightColor", lights[i].Color)
		b.Model.SetInstances([]mgl32.Mat4{t})
		b.Model.Draw(p, 1)
	}
	r.stats.Markers = len(b.Transforms)
}

func (r *Renderer) skyboxPass(f Frame) error {
	if err := r.enter(PassSkybox); err != nil {
		return err
	}
	r.sky.Draw(r.programs.Skybox, f.View, f.Projection)
	return nil
}

// Destroy releases programs, the shadow map and the sky.
func (r *Renderer) Destroy() {
	logger.Info("closing renderer")
	if r.programs != nil {
		r.programs.Destroy()
		r.programs = nil
	}
	if r.shadow != nil {
		r.shadow.Destroy()
		r.shadow = nil
	}
	if r.sky != nil {
		r.sky.Destroy()
		r.sky = nil
	}
}
