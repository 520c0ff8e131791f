package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu/gputest"
	"github.com/Faultbox/oglrenderer/internal/engine/model"
)

const twoCrates = `
objects:
  - name: a
    model: crate.glb
  - name: b
    model: crate.glb
    position: [2, 0, 0]
`

// newTestStage writes body as scene.yaml in a temp dir. Base names added to
// the returned map make the importer fail.
func newTestStage(t *testing.T, body string) (*Stage, map[string]bool, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	fail := make(map[string]bool)
	lib := model.NewLibrary(&model.Loader{
		Device:   gputest.New(),
		Importer: triangleImporter{fail: fail},
		Names:    model.NewNames(),
	})
	st, err := NewStage(path, lib)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st, fail, dir
}

func TestStageLoad(t *testing.T) {
	st, _, dir := newTestStage(t, twoCrates)
	require.NoError(t, st.Load())

	sc := st.Scene()
	require.Len(t, sc.Objects, 2)
	assert.Same(t, sc.Objects[0].Model, sc.Objects[1].Model, "one model per path")
	assert.Equal(t, int32(2), sc.Objects[0].Model.Refs())
	assert.Equal(t, []string{st.Path(), filepath.Join(dir, "crate.glb")}, st.Watched())
}

func TestStageReloadModelKeepsObjects(t *testing.T) {
	st, _, dir := newTestStage(t, twoCrates)
	require.NoError(t, st.Load())
	before := st.Scene().Objects[0].Model
	name := before.Name

	u, err := st.Apply([]string{filepath.Join(dir, "crate.glb"), filepath.Join(dir, "unrelated.png")})
	require.NoError(t, err)
	assert.Equal(t, Update{Models: 1}, u)
	assert.Same(t, before, st.Scene().Objects[0].Model)
	assert.Equal(t, name, before.Name)
	assert.Len(t, before.Meshes, 1)
}

func TestStageReloadFailureKeepsModel(t *testing.T) {
	st, fail, dir := newTestStage(t, twoCrates)
	require.NoError(t, st.Load())

	fail["crate.glb"] = true
	_, err := st.Apply([]string{filepath.Join(dir, "crate.glb")})
	assert.ErrorIs(t, err, model.ErrImport)
	assert.Len(t, st.Scene().Objects[0].Model.Meshes, 1, "old geometry survives")
}

func TestStageSceneEditRebuildsAndPrunes(t *testing.T) {
	st, _, dir := newTestStage(t, twoCrates)
	require.NoError(t, st.Load())
	old := st.Scene()
	crate := old.Objects[0].Model

	edited := `
objects:
  - name: barrel
    model: barrel.glb
`
	require.NoError(t, os.WriteFile(st.Path(), []byte(edited), 0644))

	u, err := st.Apply([]string{st.Path()})
	require.NoError(t, err)
	assert.True(t, u.Scene)

	require.Len(t, st.Scene().Objects, 1)
	assert.Equal(t, "barrel", st.Scene().Objects[0].Name)
	assert.Empty(t, old.Objects, "old scene released its objects")
	assert.Equal(t, int32(0), crate.Refs())
	assert.Equal(t, []string{filepath.Join(dir, "barrel.glb")}, st.lib.Paths())
}

func TestStageBadEditKeepsScene(t *testing.T) {
	st, _, _ := newTestStage(t, twoCrates)
	require.NoError(t, st.Load())
	old := st.Scene()

	require.NoError(t, os.WriteFile(st.Path(), []byte("objects: [ {"), 0644))
	_, err := st.Apply([]string{st.Path()})
	assert.Error(t, err)
	assert.Same(t, old, st.Scene())
	assert.Len(t, old.Objects, 2)
}

func TestStageImportFailureStillBuilds(t *testing.T) {
	st, fail, _ := newTestStage(t, twoCrates)
	fail["crate.glb"] = true

	err := st.Load()
	assert.ErrorIs(t, err, model.ErrImport)
	require.NotNil(t, st.Scene())
	assert.Len(t, st.Scene().Objects, 2)
	assert.True(t, st.Scene().Objects[0].Model.Empty())
}

func TestSampleSceneFile(t *testing.T) {
	lib := model.NewLibrary(model.NewLoader(gputest.New(), model.NewNames()))
	defer lib.Close()

	st, err := NewStage(filepath.Join("..", "..", "..", "scene.yaml"), lib)
	require.NoError(t, err)
	require.NoError(t, st.Load())

	sc := st.Scene()
	require.NotNil(t, sc.Marker)
	assert.Equal(t, "builtin:marker", sc.Marker.Path)
	assert.Len(t, sc.Objects, 17, "ground plus a 16 sphere grid")
	assert.Equal(t, 2, sc.Lights.Points.Count())
	assert.Equal(t, []string{st.Path()}, st.Watched(), "builtins are not watched")

	batches, err := sc.Batches()
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}
