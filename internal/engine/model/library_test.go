package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu/gputest"
	"github.com/Faultbox/oglrenderer/internal/engine/importer"
)

func TestLibraryLoadsOnce(t *testing.T) {
	dev := gputest.New()
	imp := &countingImporter{stubImporter: stubImporter{scene: twoNodeScene}}
	lib := NewLibrary(newTestLoader(dev, imp, newStubDecoder()))

	a, err := lib.Load("models/crate.glb")
	require.NoError(t, err)
	b, err := lib.Load("models/../models/crate.glb")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, imp.calls)
	assert.Len(t, lib.Paths(), 1)

	got, ok := lib.Get("models/crate.glb")
	assert.True(t, ok)
	assert.Same(t, a, got)
}

func TestLibraryUnloadInUse(t *testing.T) {
	dev := gputest.New()
	lib := NewLibrary(newTestLoader(dev, &stubImporter{scene: twoNodeScene}, newStubDecoder()))

	m, err := lib.Load("crate.glb")
	require.NoError(t, err)
	m.Retain()

	err = lib.Unload("crate.glb")
	require.ErrorIs(t, err, ErrModelInUse)
	assert.False(t, m.Empty())

	m.Drop()
	require.NoError(t, lib.Unload("crate.glb"))
	assert.Zero(t, dev.Live())
	assert.ErrorIs(t, lib.Unload("crate.glb"), ErrNotLoaded)
}

func TestLibraryReloadKeepsIdentity(t *testing.T) {
	dev := gputest.New()
	imp := &stubImporter{err: errors.New("not yet written")}
	lib := NewLibrary(newTestLoader(dev, imp, newStubDecoder()))

	m, err := lib.Load("late.glb")
	require.ErrorIs(t, err, ErrImport)
	assert.True(t, m.Empty())

	imp.err = nil
	imp.scene = twoNodeScene
	require.NoError(t, lib.Reload("late.glb"))
	assert.Len(t, m.Meshes, 2)
	assert.Equal(t, "late1", m.Name)

	imp.err = errors.New("corrupt")
	assert.ErrorIs(t, lib.Reload("late.glb"), ErrImport)
	assert.Len(t, m.Meshes, 2, "failed reload keeps the old meshes")

	assert.ErrorIs(t, lib.Reload("never.glb"), ErrNotLoaded)

	lib.Close()
	assert.Empty(t, lib.Paths())
	assert.Zero(t, dev.Live())
	assert.NoError(t, dev.Err())
}

type countingImporter struct {
	stubImporter
	calls int
}

func (c *countingImporter) Import(path string, flags importer.PostProcess) (*importer.Scene, error) {
	c.calls++
	return c.stubImporter.Import(path, flags)
}

func TestLibraryPrune(t *testing.T) {
	dev := gputest.New()
	lib := NewLibrary(newTestLoader(dev, &stubImporter{scene: twoNodeScene}, newStubDecoder()))

	keep, err := lib.Load("keep.glb")
	require.NoError(t, err)
	held, err := lib.Load("held.glb")
	require.NoError(t, err)
	_, err = lib.Load("stale.glb")
	require.NoError(t, err)
	held.Retain()

	dropped := lib.Prune([]string{"keep.glb"})
	require.Len(t, dropped, 1)
	assert.Contains(t, dropped[0], "stale.glb")
	assert.Len(t, lib.Paths(), 2)
	assert.False(t, keep.Empty())
	assert.False(t, held.Empty(), "referenced models survive")
}

func TestLibraryBuiltins(t *testing.T) {
	dev := gputest.New()
	imp := &countingImporter{stubImporter: stubImporter{scene: twoNodeScene}}
	lib := NewLibrary(newTestLoader(dev, imp, newStubDecoder()))

	m, err := lib.Load("builtin:sphere")
	require.NoError(t, err)
	assert.Zero(t, imp.calls, "builtins bypass the importer")
	assert.Equal(t, "sphere1", m.Name)
	assert.Len(t, m.Meshes, 1)
	assert.True(t, m.Meshes[0].Uploaded())
	assert.Equal(t, []string{"builtin:sphere"}, lib.Paths())

	require.NoError(t, lib.Reload("builtin:sphere"))
	assert.Len(t, m.Meshes, 1)

	bad, err := lib.Load("builtin:teapot")
	assert.ErrorIs(t, err, ErrImport)
	assert.True(t, bad.Empty())
}
