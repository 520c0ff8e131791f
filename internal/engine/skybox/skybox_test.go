package skybox

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/gpu/gputest"
	"github.com/Faultbox/oglrenderer/internal/engine/shader"
	"github.com/Faultbox/oglrenderer/internal/engine/texture"
)

type faceDecoder struct{ fail bool }

func (d faceDecoder) Decode(string) (*texture.Image, error) {
	if d.fail {
		return nil, errors.New("missing face")
	}
	return &texture.Image{Width: 1, Height: 1, Channels: 3, Pix: []byte{1, 2, 3}}, nil
}

func TestDrawStripsTranslation(t *testing.T) {
	dev := gputest.New()
	sky, err := New(dev, faceDecoder{}, [6]string{"a", "b", "c", "d", "e", "f"}, mgl32.Vec3{0.5, 0.7, 0.9})
	require.NoError(t, err)
	set, err := shader.LoadSet(dev)
	require.NoError(t, err)

	view := mgl32.Translate3D(4, 5, 6).Mul4(mgl32.HomogRotate3DY(0.3))
	dev.Reset()
	sky.Draw(set.Skybox, view, mgl32.Ident4())

	got, ok := dev.Uniform(set.Skybox.ID(), "view").([16]float32)
	require.True(t, ok)
	assert.Zero(t, got[12])
	assert.Zero(t, got[13])
	assert.Zero(t, got[14])
	assert.Equal(t, view[0], got[0])

	ops := dev.Ops()
	lequal := dev.Find("DepthFunc", gpu.LessEqual)
	less := dev.Find("DepthFunc", gpu.Less)
	draw := dev.Find("DrawArrays", int32(0), int32(VertexCount))
	require.Len(t, lequal, 1)
	require.Len(t, less, 1)
	require.Len(t, draw, 1)
	assert.Less(t, lequal[0], draw[0])
	assert.Less(t, draw[0], less[0])
	assert.Equal(t, "DepthFunc", ops[len(ops)-1])
	assert.Len(t, dev.Find("BindTexture", gpu.TextureCubeMap, sky.Cubemap()), 1)
}

func TestGeneratedSkyFallback(t *testing.T) {
	dev := gputest.New()
	sky, err := New(dev, faceDecoder{fail: true}, [6]string{"a", "b", "c", "d", "e", "f"}, mgl32.Vec3{0.5, 0.7, 0.9})
	require.NoError(t, err)
	assert.NotZero(t, sky.Cubemap())
	assert.Equal(t, 6, dev.Count("TexImage2D"))

	empty, err := New(dev, nil, [6]string{}, mgl32.Vec3{})
	require.NoError(t, err)
	assert.NotZero(t, empty.Cubemap())

	sky.Destroy()
	sky.Destroy()
	empty.Destroy()
	assert.Zero(t, dev.Live())
	assert.NoError(t, dev.Err())
}

func TestGradientFaces(t *testing.T) {
	faces := GradientFaces(mgl32.Vec3{1, 1, 1}, 8)
	for i, f := range faces {
		require.NotNil(t, f, "face %d", i)
		assert.Len(t, f.Pix, 8*8*3)
	}
	// the +X face gets darker towards the bottom
	top, bottom := faces[0].Pix[0], faces[0].Pix[len(faces[0].Pix)-3]
	assert.Greater(t, top, bottom)
	// +Y is the zenith, -Y the ground
	assert.Greater(t, faces[2].Pix[2], faces[3].Pix[2])
}
