package texture

import (
	"fmt"
	"image"
)

// TGA image type constants.
const (
	TGATypeTrueColor    = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeTrueColorRLE = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

// DecodeTGA decodes a TGA image file.
// Supports true-color (24/32 bit) and grayscale (8 bit) images, raw or RLE.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("TGA data too short")
	}

	// TGA header
	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	// colorMapSpec: bytes 3-7
	// imageSpec: bytes 8-17
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	gray := imageType == TGATypeGray || imageType == TGATypeGrayRLE
	switch imageType {
	case TGATypeTrueColor, TGATypeTrueColorRLE:
		if bpp != 24 && bpp != 32 {
			return nil, fmt.Errorf("unsupported TGA bit depth %d for true-color", bpp)
		}
	case TGATypeGray, TGATypeGrayRLE:
		if bpp != 8 {
			return nil, fmt.Errorf("unsupported TGA bit depth %d for grayscale", bpp)
		}
	default:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("TGA has zero size %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("TGA size %dx%d exceeds %d", width, height, MaxDimension)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	src := data[offset:]
	rle := imageType == TGATypeTrueColorRLE || imageType == TGATypeGrayRLE
	if err := checkPayload(width*height, bpp/8, len(src), rle); err != nil {
		return nil, err
	}

	d := tgaDecoder{
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		bpp:         bpp / 8,
		gray:        gray,
		topToBottom: descriptor&0x20 != 0,
	}

	var err error
	if rle {
		err = d.readRLE(src)
	} else {
		err = d.readRaw(src)
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

// checkPayload rejects a header declaring more pixels than the payload can
// hold, before the image is allocated. An RLE packet takes at least a count
// byte and one pixel and expands to at most 128 pixels.
func checkPayload(pixels, bpp, size int, rle bool) error {
	limit := size / bpp
	if rle {
		limit = size / (1 + bpp) * 128
	}
	if pixels > limit {
		return fmt.Errorf("TGA declares %d pixels but holds at most %d", pixels, limit)
	}
	return nil
}

type tgaDecoder struct {
	img           *image.NRGBA
	width, height int
	bpp           int
	gray          bool
	topToBottom   bool
}

// put stores one source pixel (BGR(A) or L) at linear pixel index idx.
func (d *tgaDecoder) put(idx int, px []byte) {
	x := idx % d.width
	y := idx / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	o := d.img.PixOffset(x, y)
	p := d.img.Pix[o : o+4 : o+4]
	if d.gray {
		p[0], p[1], p[2], p[3] = px[0], px[0], px[0], 255
		return
	}
	p[0], p[1], p[2] = px[2], px[1], px[0]
	p[3] = 255
	if d.bpp == 4 {
		p[3] = px[3]
	}
}

func (d *tgaDecoder) readRaw(src []byte) error {
	count := d.width * d.height
	if len(src) < count*d.bpp {
		return fmt.Errorf("TGA pixel data truncated")
	}
	for i := 0; i < count; i++ {
		d.put(i, src[i*d.bpp:])
	}
	return nil
}

func (d *tgaDecoder) readRLE(src []byte) error {
	count := d.width * d.height
	pixel, pos := 0, 0

	for pixel < count {
		if pos >= len(src) {
			return fmt.Errorf("TGA RLE data truncated at pixel %d of %d", pixel, count)
		}
		packet := src[pos]
		pos++
		n := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run packet: one pixel repeated n times.
			if pos+d.bpp > len(src) {
				return fmt.Errorf("TGA RLE data truncated at pixel %d of %d", pixel, count)
			}
			px := src[pos : pos+d.bpp]
			pos += d.bpp
			for i := 0; i < n && pixel < count; i++ {
				d.put(pixel, px)
				pixel++
			}
			continue
		}

		// Raw packet: n literal pixels.
		if pos+n*d.bpp > len(src) {
			return fmt.Errorf("TGA RLE data truncated at pixel %d of %d", pixel, count)
		}
		for i := 0; i < n && pixel < count; i++ {
			d.put(pixel, src[pos:])
			pos += d.bpp
			pixel++
		}
	}
	return nil
}
