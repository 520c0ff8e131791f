// Package viewer runs the interactive renderer: window, input, camera, the
// scene stage and the frame loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/config"
	"github.com/Faultbox/oglrenderer/internal/engine/camera"
	"github.com/Faultbox/oglrenderer/internal/engine/debug"
	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/gpu/gldevice"
	"github.com/Faultbox/oglrenderer/internal/engine/hotreload"
	"github.com/Faultbox/oglrenderer/internal/engine/input"
	"github.com/Faultbox/oglrenderer/internal/engine/lighting"
	"github.com/Faultbox/oglrenderer/internal/engine/model"
	"github.com/Faultbox/oglrenderer/internal/engine/picking"
	"github.com/Faultbox/oglrenderer/internal/engine/renderer"
	"github.com/Faultbox/oglrenderer/internal/engine/scene"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
	"github.com/Faultbox/oglrenderer/internal/engine/window"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// Viewer is the running application.
type Viewer struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	dev      gpu.Device
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.FlyCamera
	stage    *scene.Stage
	watcher  *hotreload.Watcher
	shots    *debug.ScreenshotCapture
	selected *scene.Object
}

// New opens the window, creates the renderer and loads the scene.
func New(cfg *config.Config) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("scene", cfg.Scene.File),
	)

	v := &Viewer{
		cfg:    cfg,
		input:  input.New(),
		camera: camera.NewFlyCamera(mgl32.Vec3{0, 1, 5}, cfg.Graphics.FOV),
		shots:  debug.NewScreenshotCapture(cfg.Debug.ScreenshotDir, "oglrenderer"),
	}

	var err error
	v.window, err = window.New(window.Config{
		Title:       "oglrenderer",
		Width:       cfg.Graphics.Width,
		Height:      cfg.Graphics.Height,
		Fullscreen:  cfg.Graphics.Fullscreen,
		VSync:       cfg.Graphics.VSync,
		MSAASamples: cfg.Graphics.MSAASamples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs a current context, so it comes after the window.
	dev, err := gldevice.New()
	if err != nil {
		v.Close()
		return nil, err
	}
	v.dev = dev
	if cfg.Graphics.MSAASamples > 0 {
		dev.Enable(gpu.Multisample)
	}

	w, h := v.window.DrawableSize()
	opts := renderer.OptionsFromConfig(cfg)
	opts.Width, opts.Height = int32(w), int32(h)
	v.renderer, err = renderer.New(dev, opts)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	lib := model.NewLibrary(model.NewLoader(dev, model.NewNames()))
	v.stage, err = scene.NewStage(cfg.Scene.File, lib)
	if err != nil {
		v.Close()
		return nil, err
	}
	if err := v.stage.Load(); err != nil {
		if v.stage.Scene() == nil {
			v.Close()
			return nil, fmt.Errorf("failed to load scene: %w", err)
		}
		logger.Warn("scene loaded with errors", zap.Error(err))
	}
	v.applySkybox()

	if cfg.Scene.Watch {
		v.startWatcher()
	}

	logger.Info("viewer initialized")
	return v, nil
}

func (v *Viewer) startWatcher() {
	w, err := hotreload.New(hotreload.DefaultDelay)
	if err != nil {
		logger.Warn("hot reload disabled", zap.Error(err))
		return
	}
	v.watcher = w
	v.watchStage()
	w.Start()
	logger.Info("hot reload enabled", zap.Int("files", len(w.Files())))
}

// watchStage adds every stage file to the watcher. Missing files are skipped.
func (v *Viewer) watchStage() {
	for _, p := range v.stage.Watched() {
		if err := v.watcher.Add(p); err != nil {
			logger.Debug("not watching", zap.String("path", p), zap.Error(err))
		}
	}
}

func (v *Viewer) applySkybox() {
	if err := v.renderer.LoadSkybox(texture.FileDecoder{}, v.stage.Scene().Skybox); err != nil {
		logger.Warn("skybox not loaded", zap.Error(err))
	}
}

// Run starts the main loop. It returns when the window is closed or Escape
// is pressed.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting render loop")

	for v.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()
		v.update(dt)

		if err := v.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			st := v.renderer.Stats()
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Float32("dtMs", dt*1000),
				zap.Int("batches", st.Batches),
				zap.Int("instances", st.Instances),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			w, h := v.window.DrawableSize()
			v.renderer.Resize(int32(w), int32(h))
		case input.EventMouseDown:
			switch event.Button {
			case sdl.BUTTON_RIGHT:
				v.window.SetRelativeMouse(true)
			case sdl.BUTTON_LEFT:
				v.pick(event.MouseX, event.MouseY)
			}
		case input.EventMouseUp:
			if event.Button == sdl.BUTTON_RIGHT {
				v.window.SetRelativeMouse(false)
			}
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	lights := v.stage.Scene().Lights
	opts := v.renderer.Options()

	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_F1:
		v.renderer.SetWireframe(!opts.Wireframe)
	case sdl.SCANCODE_F2:
		v.renderer.SetNormalMaps(!opts.UseNormalMaps)
	case sdl.SCANCODE_F:
		lights.Spot.Enabled = !lights.Spot.Enabled
	case sdl.SCANCODE_L:
		if !lights.Points.AddLight(lighting.PointLight{Position: v.camera.Position(), Color: mgl32.Vec3{1, 1, 1}}) {
			logger.Warn("point light limit reached", zap.Int("max", lighting.MaxPointLights))
		}
	case sdl.SCANCODE_K:
		lights.Points.RemoveLight(lights.Points.Count() - 1)
	case sdl.SCANCODE_H:
		if v.selected != nil {
			v.selected.Visible = !v.selected.Visible
		}
	case sdl.SCANCODE_DELETE:
		if v.selected != nil && v.stage.Scene().Remove(v.selected) {
			logger.Info("object removed", zap.String("name", v.selected.Name))
			v.selected = nil
		}
	case sdl.SCANCODE_R:
		v.reload(v.stage.Watched())
	case sdl.SCANCODE_F12:
		w, h := v.window.DrawableSize()
		path, err := v.shots.Capture(v.dev, w, h)
		if err != nil {
			logger.Error("screenshot failed", zap.Error(err))
			return
		}
		logger.Info("screenshot saved", zap.String("path", path))
	}
}

// pick selects the object under a window-space cursor position.
func (v *Viewer) pick(x, y int) {
	ww, wh := v.window.GetSize()
	viewProj := v.projection().Mul4(v.camera.ViewMatrix())
	ray := picking.ScreenToRay(float32(x), float32(y), float32(ww), float32(wh), viewProj.Inv())

	obj, dist := picking.Pick(v.stage.Scene().Objects, ray)
	v.selected = obj
	if obj == nil {
		logger.Debug("nothing picked")
		return
	}
	logger.Info("object picked",
		zap.String("name", obj.Name),
		zap.String("model", obj.Model.Name),
		zap.Float32("distance", dist),
	)
}

func (v *Viewer) projection() mgl32.Mat4 {
	opts := v.renderer.Options()
	aspect := float32(opts.Width) / float32(max(opts.Height, 1))
	return camera.Projection(v.camera, aspect, v.cfg.Graphics.Near, v.cfg.Graphics.Far)
}

func (v *Viewer) update(dt float32) {
	forward, right, up := v.input.Movement()
	v.camera.Move(forward, right, up, dt)
	if v.window.RelativeMouse() {
		dx, dy := v.input.MouseDelta()
		v.camera.Look(dx, dy)
	}
	if wheel := v.input.Wheel(); wheel != 0 {
		v.camera.Scroll(wheel)
	}

	if spot := &v.stage.Scene().Lights.Spot; spot.Enabled {
		spot.Follow(v.camera.Position(), v.camera.Front())
	}

	if v.watcher != nil {
		select {
		case paths := <-v.watcher.Changes():
			v.reload(paths)
		default:
		}
	}
}

func (v *Viewer) reload(paths []string) {
	u, err := v.stage.Apply(paths)
	if err != nil {
		logger.Warn("reload finished with errors", zap.Error(err))
	}
	if u.Scene {
		v.selected = nil
		v.applySkybox()
		if v.watcher != nil {
			v.watchStage()
		}
	}
}

func (v *Viewer) render() error {
	err := v.renderer.Render(renderer.Frame{
		Scene:      v.stage.Scene(),
		View:       v.camera.ViewMatrix(),
		Projection: v.projection(),
		CameraPos:  v.camera.Position(),
	})
	if err != nil {
		return err
	}

	if v.cfg.Debug.CheckGLErrors {
		if err := v.dev.CheckError(); err != nil {
			logger.Warn("gl errors", zap.Error(err))
		}
	}
	return nil
}

// Close releases everything in reverse creation order.
func (v *Viewer) Close() {
	logger.Info("closing viewer")

	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			logger.Warn("closing watcher", zap.Error(err))
		}
	}
	if v.stage != nil {
		v.stage.Close()
	}
	if v.renderer != nil {
		v.renderer.Destroy()
	}
	if v.window != nil {
		v.window.Close()
	}
}
