package texture

import (
	"image"
	"image/color"
)

// Image is decoded pixel data, top row first, tightly packed.
type Image struct {
	Width    int
	Height   int
	Channels int // 1, 3 or 4
	Pix      []byte
}

// FromImage packs img into 1 (gray), 3 (opaque color) or 4 channels.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	channels := 4
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		channels = 1
	default:
		if opaque(img) {
			channels = 3
		}
	}

	out := &Image{Width: w, Height: h, Channels: channels, Pix: make([]byte, 0, w*h*channels)}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if channels == 1 {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				out.Pix = append(out.Pix, g.Y)
				continue
			}
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix = append(out.Pix, c.R, c.G, c.B)
			if channels == 4 {
				out.Pix = append(out.Pix, c.A)
			}
		}
	}
	return out
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
