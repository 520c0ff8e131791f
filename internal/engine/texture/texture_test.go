package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/engine/gpu/gputest"
)

// countingDecoder returns a 2x2 RGB image and counts calls per path.
type countingDecoder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (d *countingDecoder) Decode(path string) (*Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls[path]++
	if d.fail[path] {
		return nil, errors.New("no such file")
	}
	return &Image{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 12)}, nil
}

func TestCacheDecodesEachPathOnce(t *testing.T) {
	dev := gputest.New()
	dec := newCountingDecoder()
	c := NewCache(dev, dec)

	paths := []string{"a.png", "b.png", "a.png", "c.png", "b.png", "a.png"}
	seen := make(map[string]gpu.Texture)
	for _, p := range paths {
		tex := c.Get(p, Albedo)
		require.True(t, tex.Loaded())
		if prev, ok := seen[p]; ok {
			assert.Equal(t, prev, tex.ID, "same path must map to same texture")
		}
		seen[p] = tex.ID
	}

	for p, n := range dec.calls {
		assert.Equal(t, 1, n, "decoder calls for %s", p)
	}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 3, dev.Count("CreateTexture"))
}

func TestCacheConcurrentGet(t *testing.T) {
	dev := gputest.New()
	dec := newCountingDecoder()
	c := NewCache(dev, dec)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get("shared.png", Normal)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, dec.calls["shared.png"])
}

func TestCacheFailureCachedWithZeroID(t *testing.T) {
	dev := gputest.New()
	dec := newCountingDecoder()
	dec.fail["missing.png"] = true
	c := NewCache(dev, dec)

	tex := c.Get("missing.png", Albedo)
	assert.False(t, tex.Loaded())
	assert.Equal(t, "missing.png", tex.Path)

	again := c.Get("missing.png", Albedo)
	assert.Same(t, tex, again)
	assert.Equal(t, 1, dec.calls["missing.png"])

	require.Error(t, c.Err())
	assert.ErrorIs(t, c.Err(), ErrLoad)
	assert.Zero(t, dev.Count("CreateTexture"))
}

func TestCacheReleaseRefcount(t *testing.T) {
	dev := gputest.New()
	c := NewCache(dev, newCountingDecoder())
	c.Get("a.png", Albedo)
	c.Get("b.png", Roughness)

	c.Retain()
	assert.False(t, c.Release())
	assert.Equal(t, 2, dev.Live())

	assert.True(t, c.Release())
	assert.Zero(t, dev.Live())
	assert.NoError(t, dev.Err())
	assert.Panics(t, func() { c.Release() })
}

func TestCacheEmbedded(t *testing.T) {
	dev := gputest.New()
	c := NewCache(dev, newCountingDecoder())

	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	require.NoError(t, png.Encode(&buf, img))

	tex := c.GetEmbedded("*0", buf.Bytes(), "image/png", Albedo)
	require.True(t, tex.Loaded())
	assert.Same(t, tex, c.GetEmbedded("*0", nil, "", Albedo))
}

func TestUploadFormats(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		role     Role
		internal gpu.PixelFormat
		format   gpu.PixelFormat
	}{
		{"albedo rgb is srgb", 3, Albedo, gpu.SRGB, gpu.RGB},
		{"albedo rgba is srgb alpha", 4, Albedo, gpu.SRGBAlpha, gpu.RGBA},
		{"albedo gray stays red", 1, Albedo, gpu.Red, gpu.Red},
		{"normal stays linear", 3, Normal, gpu.RGB, gpu.RGB},
		{"roughness gray", 1, Roughness, gpu.Red, gpu.Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.New()
			img := &Image{Width: 1, Height: 1, Channels: tt.channels, Pix: make([]byte, tt.channels)}
			id, err := Upload(dev, img, tt.role)
			require.NoError(t, err)
			assert.NotZero(t, id)

			idx := dev.Find("TexImage2D", gpu.Texture2D)
			require.Len(t, idx, 1)
			call := dev.Calls()[idx[0]]
			assert.Equal(t, tt.internal, call.Args[1])
			assert.Equal(t, tt.format, call.Args[2])
			assert.Equal(t, 1, dev.Count("GenerateMipmap"))
		})
	}
}

func TestUploadRejectsBadChannels(t *testing.T) {
	dev := gputest.New()
	_, err := Upload(dev, &Image{Width: 1, Height: 1, Channels: 2, Pix: make([]byte, 2)}, Albedo)
	assert.ErrorIs(t, err, ErrLoad)
	assert.Zero(t, dev.Live())
}

func TestRoleBindings(t *testing.T) {
	units := make(map[uint32]Role)
	for _, r := range Roles() {
		b := r.Binding()
		assert.NotEqual(t, uint32(ShadowUnit), b.Unit, "%s collides with shadow unit", r)
		if other, dup := units[b.Unit]; dup {
			t.Errorf("%s and %s share unit %d", r, other, b.Unit)
		}
		units[b.Unit] = r
		assert.NotEmpty(t, b.Sampler)
		assert.NotEmpty(t, b.Flag)
	}
	assert.Equal(t, uint32(0), Albedo.Binding().Unit)
	assert.Equal(t, "hasNormalMap", Normal.Binding().Flag)
	assert.Equal(t, "unknown", Role(99).String())
}

func TestFromImageChannels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 200})
	g := FromImage(gray)
	assert.Equal(t, 1, g.Channels)
	assert.Equal(t, []byte{0, 200}, g.Pix)

	rgb := image.NewRGBA(image.Rect(0, 0, 1, 1))
	rgb.SetRGBA(0, 0, color.RGBA{10, 20, 30, 255})
	r := FromImage(rgb)
	assert.Equal(t, 3, r.Channels)
	assert.Equal(t, []byte{10, 20, 30}, r.Pix)

	rgba := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	rgba.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 128})
	a := FromImage(rgba)
	assert.Equal(t, 4, a.Channels)
	assert.Equal(t, []byte{10, 20, 30, 128}, a.Pix)
}

func TestDecodeTGA(t *testing.T) {
	// 2x1, 24-bit, bottom-up, uncompressed: blue then red (BGR order).
	header := make([]byte, 18)
	header[2] = TGATypeUncompressed
	header[12], header[14], header[16] = 2, 1, 24
	data := append(header, 255, 0, 0, 0, 0, 255)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.At(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.At(1, 0))
}

func TestDecodeTGARLE(t *testing.T) {
	header := make([]byte, 18)
	header[2] = TGATypeRLE
	header[12], header[14], header[16], header[17] = 3, 1, 32, 0x20
	// One run packet of 3 pixels of semi-transparent green.
	data := append(header, 0x82, 0, 255, 0, 100)

	img, err := DecodeTGA(data)
	require.NoError(t, err)
	for x := 0; x < 3; x++ {
		assert.Equal(t, color.RGBA{0, 255, 0, 100}, img.At(x, 0))
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	_, err := DecodeTGA([]byte{1, 2, 3})
	assert.Error(t, err)

	header := make([]byte, 18)
	header[2] = 3 // grayscale
	header[16] = 8
	_, err = DecodeTGA(header)
	assert.Error(t, err)

	header[2] = TGATypeUncompressed
	header[12], header[14], header[16] = 4, 4, 24
	_, err = DecodeTGA(header)
	assert.Error(t, err, "pixel data missing")
}

func TestFileDecoderPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")

	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	out, err := FileDecoder{}.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, 3, out.Channels)

	_, err = FileDecoder{}.Decode(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestLoadCubemap(t *testing.T) {
	dev := gputest.New()
	dec := newCountingDecoder()
	faces := [6]string{"px.png", "nx.png", "py.png", "ny.png", "pz.png", "nz.png"}

	id, err := LoadCubemap(dev, dec, faces)
	require.NoError(t, err)
	assert.NotZero(t, id)
	for i := 0; i < 6; i++ {
		assert.Len(t, dev.Find("TexImage2D", gpu.CubeFace(i)), 1, "face %d", i)
	}

	dec.fail["ny.png"] = true
	_, err = LoadCubemap(dev, dec, faces)
	assert.ErrorIs(t, err, ErrLoad)
}
