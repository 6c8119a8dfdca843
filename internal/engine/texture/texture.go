// Package texture decodes encoded images into raw RGBA8 pixel buffers.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/bmp"  // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrDecode is returned for corrupt or unsupported encodings.
var ErrDecode = errors.New("texture decode failed")

// MaxDimension is the largest width or height Decode accepts.
const MaxDimension = 16384

// Image is a decoded image: tightly packed, non-premultiplied RGBA8 rows,
// first row first.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// Decode decodes PNG, JPEG, BMP, TIFF, WebP or TGA data into an Image.
func Decode(data []byte) (*Image, error) {
	// Headers are checked before the decoder allocates the full image.
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
			return nil, fmt.Errorf("%w: %s image %dx%d exceeds %d", ErrDecode, format, cfg.Width, cfg.Height, MaxDimension)
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		// TGA has no magic number; try it last.
		img, err = DecodeTGA(data)
		format = "tga"
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s image has empty bounds %v", ErrDecode, format, b)
	}

	rgba := ToNRGBA(img)
	return &Image{Width: b.Dx(), Height: b.Dy(), Pix: rgba.Pix}, nil
}

// ToNRGBA converts any image to a tightly packed *image.NRGBA with origin (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// MipLevelCount returns the length of a full mip chain for the given size.
func MipLevelCount(width, height int) int {
	n := 1
	for size := max(width, height); size > 1; size >>= 1 {
		n++
	}
	return n
}
