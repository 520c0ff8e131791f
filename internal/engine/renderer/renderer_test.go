package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/oglrenderer/internal/config"
	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/gpu/gputest"
	"github.com/Faultbox/oglrenderer/internal/engine/importer"
	"github.com/Faultbox/oglrenderer/internal/engine/lighting"
	"github.com/Faultbox/oglrenderer/internal/engine/model"
	"github.com/Faultbox/oglrenderer/internal/engine/scene"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
)

type cubeImporter struct{}

func (cubeImporter) Import(string, importer.PostProcess) (*importer.Scene, error) {
	return &importer.Scene{
		Root: &importer.Node{Meshes: []int{0}},
		Meshes: []*importer.Mesh{{
			Positions: []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
			Faces:     [][]uint32{{0, 1, 2}, {0, 2, 3}},
		}},
		Materials: []*importer.Material{{Name: "default"}},
	}, nil
}

type fixture struct {
	dev   *gputest.Recorder
	r     *Renderer
	scene *scene.Scene
	lib   *model.Library
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := gputest.New()
	r, err := New(dev, DefaultOptions())
	require.NoError(t, err)

	lib := model.NewLibrary(&model.Loader{Device: dev, Importer: cubeImporter{}, Names: model.NewNames()})
	a, err := lib.Load("a.glb")
	require.NoError(t, err)
	b, err := lib.Load("b.glb")
	require.NoError(t, err)

	s := scene.New()
	s.Add("a1", a)
	s.Add("b1", b).Position = mgl32.Vec3{3, 0, 0}
	s.Add("b2", b).Position = mgl32.Vec3{-3, 0, 0}
	s.Marker = lib.Loader().FromMeshes("marker", []*model.Mesh{model.Sphere(1, 8, 4)})
	s.Lights.Points.AddLight(lighting.PointLight{Position: mgl32.Vec3{0, 3, 0}, Color: mgl32.Vec3{1, 0, 0}})
	s.Lights.Points.AddLight(lighting.PointLight{Position: mgl32.Vec3{0, 3, 3}, Color: mgl32.Vec3{0, 0, 1}})

	return &fixture{dev: dev, r: r, scene: s, lib: lib}
}

func (fx *fixture) frame() Frame {
	return Frame{
		Scene:      fx.scene,
		View:       mgl32.LookAtV(mgl32.Vec3{0, 2, 8}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 100),
		CameraPos:  mgl32.Vec3{0, 2, 8},
	}
}

func TestPassOrdering(t *testing.T) {
	fx := newFixture(t)
	fx.dev.Reset()
	require.NoError(t, fx.r.Render(fx.frame()))
	assert.Equal(t, PassDone, fx.r.Pass())

	bindShadow := fx.dev.Find("BindFramebuffer", fx.r.ShadowMap().FBO)
	unbindShadow := fx.dev.Find("BindFramebuffer", gpu.DefaultFramebuffer)
	require.Len(t, bindShadow, 1)
	require.Len(t, unbindShadow, 1)
	assert.Less(t, bindShadow[0], unbindShadow[0])

	useLit := fx.dev.Find("UseProgram", fx.r.programs.Lit.ID())
	require.Len(t, useLit, 1)

	draws := fx.dev.Find("DrawElementsInstanced")
	var shadowDraws, litDraws []int
	for _, i := range draws {
		switch {
		case i > bindShadow[0] && i < unbindShadow[0]:
			shadowDraws = append(shadowDraws, i)
		case i > useLit[0]:
			litDraws = append(litDraws, i)
		}
	}
	assert.Len(t, shadowDraws, 2, "one instanced draw per model in the shadow pass")
	require.NotEmpty(t, litDraws)
	assert.Less(t, unbindShadow[0], useLit[0])
	assert.Less(t, unbindShadow[0], litDraws[0], "shadow target released before the first lit draw")

	sky := fx.dev.Find("DrawArrays")
	require.Len(t, sky, 1)
	assert.Greater(t, sky[0], draws[len(draws)-1], "skybox after the last lit draw")

	stats := fx.r.Stats()
	assert.Equal(t, Stats{Batches: 2, Instances: 3, Markers: 2}, stats)
}

func TestLitUniforms(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.r.Render(fx.frame()))

	lit := fx.r.programs.Lit.ID()
	assert.Equal(t, int32(texture.ShadowUnit), fx.dev.Uniform(lit, "shadowMap"))
	assert.Equal(t, int32(2), fx.dev.Uniform(lit, "pointLightCount"))
	assert.Equal(t, [3]float32{0, 2, 8}, fx.dev.Uniform(lit, "camPos"))
	assert.Equal(t, float32(0.8), fx.dev.Uniform(lit, "defaultAlbedo"))
	assert.Equal(t, [16]float32(fx.r.LightSpace()), fx.dev.Uniform(lit, "lightSpaceMatrix"))
	assert.Equal(t, fx.dev.Uniform(fx.r.programs.Shadow.ID(), "lightSpaceMatrix"), fx.dev.Uniform(lit, "lightSpaceMatrix"))

	marker := fx.r.programs.Marker.ID()
	assert.Equal(t, [3]float32{0, 0, 1}, fx.dev.Uniform(marker, "lightColor"), "last marker color wins")

	shadowBind := fx.dev.Find("ActiveTexture", uint32(texture.ShadowUnit))
	assert.NotEmpty(t, shadowBind)
}

func TestShadowPassState(t *testing.T) {
	fx := newFixture(t)
	fx.dev.Reset()
	require.NoError(t, fx.r.Render(fx.frame()))

	res := fx.r.ShadowMap().Resolution
	vp := fx.dev.Find("Viewport", int32(0), int32(0), res, res)
	bind := fx.dev.Find("BindFramebuffer", fx.r.ShadowMap().FBO)
	clear := fx.dev.Find("Clear", gpu.DepthBuffer)
	require.Len(t, vp, 1)
	require.Len(t, clear, 1)
	assert.Less(t, vp[0], bind[0])
	assert.Less(t, bind[0], clear[0])

	opts := fx.r.Options()
	assert.Len(t, fx.dev.Find("Viewport", int32(0), int32(0), opts.Width, opts.Height), 1)
	assert.Len(t, fx.dev.Find("Clear", gpu.ColorBuffer|gpu.DepthBuffer), 1)
}

func TestPassOrderEnforced(t *testing.T) {
	fx := newFixture(t)
	batches, err := fx.scene.Batches()
	require.NoError(t, err)

	err = fx.r.litPass(fx.frame(), batches)
	require.ErrorIs(t, err, ErrPassOrder)

	require.NoError(t, fx.r.shadowPass(fx.frame(), batches))
	require.ErrorIs(t, fx.r.skyboxPass(fx.frame()), ErrPassOrder)
	require.ErrorIs(t, fx.r.shadowPass(fx.frame(), batches), ErrPassOrder)
	require.NoError(t, fx.r.litPass(fx.frame(), batches))
	require.NoError(t, fx.r.skyboxPass(fx.frame()))
	assert.Equal(t, PassSkybox, fx.r.Pass())

	require.NoError(t, fx.r.Render(fx.frame()), "a new frame starts over")
}

func TestOrphansSkipped(t *testing.T) {
	fx := newFixture(t)
	fx.scene.Objects = append(fx.scene.Objects, scene.NewObject("ghost", nil))

	require.NoError(t, fx.r.Render(fx.frame()))
	assert.Equal(t, 1, fx.r.Stats().Orphans)
	assert.Equal(t, 3, fx.r.Stats().Instances)
}

func TestRenderWithoutLights(t *testing.T) {
	fx := newFixture(t)
	bare := &scene.Scene{Objects: fx.scene.Objects, Marker: fx.scene.Marker}
	f := fx.frame()
	f.Scene = bare

	require.NoError(t, fx.r.Render(f))
	assert.Equal(t, PassDone, fx.r.Pass())
	assert.Equal(t, 3, fx.r.Stats().Instances)
	assert.Zero(t, fx.r.Stats().Markers)

	require.NoError(t, fx.r.Render(Frame{Scene: &scene.Scene{}}))
	assert.Zero(t, fx.r.Stats().Batches)
}

func TestWireframeToggle(t *testing.T) {
	fx := newFixture(t)
	fx.r.SetWireframe(true)
	fx.dev.Reset()
	require.NoError(t, fx.r.Render(fx.frame()))

	line := fx.dev.Find("PolygonMode", gpu.Line)
	fill := fx.dev.Find("PolygonMode", gpu.Fill)
	require.Len(t, line, 1)
	require.Len(t, fill, 1)
	assert.Less(t, line[0], fill[0])
	assert.Less(t, fill[0], fx.dev.Find("DrawArrays")[0], "sky is always filled")
}

func TestAutoFitShadow(t *testing.T) {
	dev := gputest.New()
	opts := DefaultOptions()
	opts.Shadow.Extent = 0
	r, err := New(dev, opts)
	require.NoError(t, err)

	lib := model.NewLibrary(&model.Loader{Device: dev, Importer: cubeImporter{}, Names: model.NewNames()})
	a, _ := lib.Load("a.glb")
	s := scene.New()
	s.Add("far", a).Position = mgl32.Vec3{40, 0, 0}

	require.NoError(t, r.Render(Frame{Scene: s, View: mgl32.Ident4(), Projection: mgl32.Ident4()}))
	// the instance at x=40 lands inside the light's clip volume
	p := r.LightSpace().Mul4x1(mgl32.Vec4{40, 0, 0, 1})
	assert.InDelta(t, 0, p.X(), 1.0)
	assert.InDelta(t, 0, p.Y(), 1.0)

	_, ok := worldBounds(nil)
	assert.False(t, ok)
}

func TestDestroyReleasesEverything(t *testing.T) {
	dev := gputest.New()
	r, err := New(dev, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, r.LoadSkybox(nil, [6]string{}))
	r.Destroy()
	r.Destroy()
	assert.Zero(t, dev.Live())
	assert.NoError(t, dev.Err())
}

func TestNewFailures(t *testing.T) {
	dev := gputest.New()
	dev.FailDepthMap = true
	_, err := New(dev, DefaultOptions())
	require.Error(t, err)
	assert.Zero(t, dev.Live(), "programs cleaned up")

	dev = gputest.New()
	dev.FailPrograms = true
	_, err = New(dev, DefaultOptions())
	assert.Error(t, err)
}

func TestPassString(t *testing.T) {
	assert.Equal(t, "shadow", PassShadow.String())
	assert.Equal(t, "Pass(9)", Pass(9).String())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Render.ShadowExtent = 0
	cfg.Render.Wireframe = true

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, int32(1280), opts.Width)
	assert.Equal(t, int32(720), opts.Height)
	assert.Equal(t, cfg.Render.ShadowResolution, opts.ShadowResolution)
	assert.Zero(t, opts.Shadow.Extent, "zero extent selects auto-fit")
	assert.Equal(t, cfg.Render.LightDistance, opts.Shadow.Distance)
	assert.Equal(t, mgl32.Vec3{0.529, 0.808, 0.922}, opts.ClearColor)
	assert.True(t, opts.Wireframe)
	assert.True(t, opts.UseNormalMaps)
	assert.Equal(t, cfg.Render.MarkerScale, opts.MarkerScale)
}
