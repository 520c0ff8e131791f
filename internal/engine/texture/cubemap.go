package texture

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// LoadCubemap uploads six face images in +X, -X, +Y, -Y, +Z, -Z order.
// Faces are clamped to edge and linearly filtered without mipmaps.
func LoadCubemap(dev gpu.Device, dec Decoder, faces [6]string) (gpu.Texture, error) {
	if dec == nil {
		dec = FileDecoder{}
	}

	var imgs [6]*Image
	for i, path := range faces {
		img, err := dec.Decode(path)
		if err != nil {
			return 0, fmt.Errorf("%w: cubemap face %d %s: %v", ErrLoad, i, path, err)
		}
		imgs[i] = img
	}

	id, err := UploadCubemap(dev, imgs)
	if err != nil {
		return 0, err
	}
	logger.Info("cubemap loaded", zap.Strings("faces", faces[:]))
	return id, nil
}

// UploadCubemap uploads already decoded faces.
func UploadCubemap(dev gpu.Device, imgs [6]*Image) (gpu.Texture, error) {
	for i, img := range imgs {
		if img == nil {
			return 0, fmt.Errorf("%w: cubemap face %d missing", ErrLoad, i)
		}
		if _, err := gpu.FormatForChannels(img.Channels); err != nil {
			return 0, fmt.Errorf("%w: cubemap face %d: %v", ErrLoad, i, err)
		}
	}

	id := dev.CreateTexture()
	dev.BindTexture(gpu.TextureCubeMap, id)
	for i, img := range imgs {
		format, _ := gpu.FormatForChannels(img.Channels)
		dev.TexImage2D(gpu.CubeFace(i), format, format, int32(img.Width), int32(img.Height), img.Pix)
	}
	dev.TexParameters(gpu.TextureCubeMap, gpu.TexParams{
		MinFilter: gpu.Linear,
		MagFilter: gpu.Linear,
		WrapS:     gpu.ClampToEdge,
		WrapT:     gpu.ClampToEdge,
		WrapR:     gpu.ClampToEdge,
	})
	dev.BindTexture(gpu.TextureCubeMap, 0)
	return id, nil
}
