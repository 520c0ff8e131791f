// Package texture decodes images and manages material textures on the GPU.
package texture

import (
	"errors"
	"fmt"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
)

// ErrLoad reports a texture that could not be decoded or uploaded.
var ErrLoad = errors.New("texture load failed")

// Texture is a material texture. ID is zero when loading failed; draw code
// skips it and reports the role as absent.
type Texture struct {
	ID   gpu.Texture
	Role Role
	Path string
}

// Loaded reports whether the texture has a GPU object.
func (t *Texture) Loaded() bool {
	return t != nil && t.ID != 0
}

// Upload creates a mipmapped, repeating 2D texture. Albedo data is stored
// as sRGB so lighting happens in linear space.
func Upload(dev gpu.Device, img *Image, role Role) (gpu.Texture, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 0, fmt.Errorf("%w: empty image", ErrLoad)
	}
	format, err := gpu.FormatForChannels(img.Channels)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if len(img.Pix) < img.Width*img.Height*img.Channels {
		return 0, fmt.Errorf("%w: short pixel buffer", ErrLoad)
	}

	id := dev.CreateTexture()
	dev.BindTexture(gpu.Texture2D, id)
	dev.TexImage2D(gpu.Texture2D, internalFormat(format, role), format,
		int32(img.Width), int32(img.Height), img.Pix)
	dev.GenerateMipmap(gpu.Texture2D)
	dev.TexParameters(gpu.Texture2D, gpu.TexParams{
		MinFilter: gpu.LinearMipmapLinear,
		MagFilter: gpu.Linear,
		WrapS:     gpu.Repeat,
		WrapT:     gpu.Repeat,
	})
	dev.BindTexture(gpu.Texture2D, 0)
	return id, nil
}

func internalFormat(format gpu.PixelFormat, role Role) gpu.PixelFormat {
	if role != Albedo {
		return format
	}
	switch format {
	case gpu.RGB:
		return gpu.SRGB
	case gpu.RGBA:
		return gpu.SRGBAlpha
	default:
		return format
	}
}
