package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoder turns an image file into pixels.
type Decoder interface {
	Decode(path string) (*Image, error)
}

// FileDecoder reads images from disk. PNG, JPEG, BMP, TIFF, WebP and TGA are supported.
type FileDecoder struct{}

// Decode reads and decodes the file at path.
func (FileDecoder) Decode(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data, filepath.Ext(path))
}

// DecodeBytes decodes in-memory image data. hint is a file extension or MIME
// type and is only needed for TGA, which has no magic number.
func DecodeBytes(data []byte, hint string) (*Image, error) {
	hint = strings.ToLower(hint)
	if hint == ".tga" || hint == "image/x-tga" || hint == "image/tga" {
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, err
		}
		return FromImage(img), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", hintOrUnknown(hint), err)
	}
	return FromImage(img), nil
}

func hintOrUnknown(hint string) string {
	if hint == "" {
		return "image"
	}
	return hint
}
