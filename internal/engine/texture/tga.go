package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

var errTGATruncated = errors.New("TGA data truncated")

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA data.
// The result is top row first regardless of the file's origin bit.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		width:       width,
		height:      height,
		bpp:         bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw()
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img           *image.RGBA
	src           []byte
	pos           int
	width, height int
	bpp           int
	topToBottom   bool
}

// next reads one BGR(A) pixel.
func (d *tgaDecoder) next() (color.RGBA, bool) {
	if d.pos+d.bpp > len(d.src) {
		return color.RGBA{}, false
	}
	p := d.src[d.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	d.pos += d.bpp
	return c, true
}

func (d *tgaDecoder) set(i int, c color.RGBA) {
	x, y := i%d.width, i/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
}

func (d *tgaDecoder) raw() error {
	if len(d.src) < d.width*d.height*d.bpp {
		return errTGATruncated
	}
	for i := 0; i < d.width*d.height; i++ {
		c, _ := d.next()
		d.set(i, c)
	}
	return nil
}

// rle decodes run-length packets. A short stream leaves the tail transparent.
func (d *tgaDecoder) rle() error {
	total := d.width * d.height
	for i := 0; i < total && d.pos < len(d.src); {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := d.next()
			if !ok {
				return nil
			}
			for j := 0; j < count && i < total; j++ {
				d.set(i, c)
				i++
			}
			continue
		}
		for j := 0; j < count && i < total; j++ {
			c, ok := d.next()
			if !ok {
				return nil
			}
			d.set(i, c)
			i++
		}
	}
	return nil
}
