package skybox

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/oglrenderer/internal/engine/texture"
)

// GradientFaces builds size x size RGB faces fading from horizon to a
// deeper zenith above and a darker ground below.
func GradientFaces(horizon mgl32.Vec3, size int) [6]*texture.Image {
	if size < 2 {
		size = 2
	}
	zenith := mgl32.Vec3{horizon.X() * 0.5, horizon.Y() * 0.6, horizon.Z()}
	ground := horizon.Mul(0.35)

	solid := func(c mgl32.Vec3) *texture.Image {
		img := &texture.Image{Width: size, Height: size, Channels: 3, Pix: make([]byte, size*size*3)}
		for i := 0; i < size*size; i++ {
			put(img.Pix[i*3:], c)
		}
		return img
	}
	// side faces: row 0 is the top of the face
	side := func() *texture.Image {
		img := &texture.Image{Width: size, Height: size, Channels: 3, Pix: make([]byte, size*size*3)}
		for y := 0; y < size; y++ {
			t := float32(y) / float32(size-1)
			var c mgl32.Vec3
			if t < 0.5 {
				c = lerp(zenith, horizon, t*2)
			} else {
				c = lerp(horizon, ground, (t-0.5)*2)
			}
			for x := 0; x < size; x++ {
				put(img.Pix[(y*size+x)*3:], c)
			}
		}
		return img
	}

	return [6]*texture.Image{side(), side(), solid(zenith), solid(ground), side(), side()}
}

func lerp(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func put(dst []byte, c mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		dst[i] = byte(mgl32.Clamp(c[i], 0, 1)*255 + 0.5)
	}
}
