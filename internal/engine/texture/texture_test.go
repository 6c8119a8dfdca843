package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	return img
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, checker()); err != nil {
		t.Fatal(err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", img.Width, img.Height)
	}
	if len(img.Pix) != 2*2*4 {
		t.Fatalf("len(Pix) = %d, want 16", len(img.Pix))
	}
	// Alpha stays straight, not premultiplied.
	want := []uint8{10, 20, 30, 128}
	if got := img.Pix[12:16]; !bytes.Equal(got, want) {
		t.Errorf("pixel (1,1) = %v, want %v", got, want)
	}
}

func TestDecodeBMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, checker()); err != nil {
		t.Fatal(err)
	}

	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if want := []uint8{0, 255, 0, 255}; !bytes.Equal(img.Pix[4:8], want) {
		t.Errorf("pixel (1,0) = %v, want %v", img.Pix[4:8], want)
	}
}

func TestDecodeGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image, but long enough to pass the header check")},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("Decode() error = %v, want ErrDecode", err)
			}
		})
	}
}

// tgaHeader builds an 18 byte TGA header.
func tgaHeader(imageType byte, w, h int, bpp byte, descriptor byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	hdr[17] = descriptor
	return hdr
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	data := tgaHeader(TGATypeTrueColor, 2, 2, 24, 0)
	// Bottom row first, BGR order.
	data = append(data,
		255, 0, 0, 0, 255, 0, // bottom: blue, green
		0, 0, 255, 255, 255, 255, // top: red, white
	)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []uint8{
		255, 0, 0, 255, 255, 255, 255, 255,
		0, 0, 255, 255, 0, 255, 0, 255,
	}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("Pix = %v, want %v", img.Pix, want)
	}
}

func TestDecodeTGARLE(t *testing.T) {
	data := tgaHeader(TGATypeTrueColorRLE, 3, 1, 32, 0x20)
	data = append(data,
		0x81, 0, 0, 255, 200, // run of 2 red pixels with alpha 200
		0x00, 255, 0, 0, 255, // one raw blue pixel
	)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []uint8{255, 0, 0, 200, 255, 0, 0, 200, 0, 0, 255, 255}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("Pix = %v, want %v", img.Pix, want)
	}
}

func TestDecodeTGAGray(t *testing.T) {
	data := tgaHeader(TGATypeGray, 2, 1, 8, 0x20)
	data = append(data, 0, 128)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []uint8{0, 0, 0, 255, 128, 128, 128, 255}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("Pix = %v, want %v", img.Pix, want)
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated raw", append(tgaHeader(TGATypeTrueColor, 2, 2, 24, 0), 1, 2, 3)},
		{"truncated rle", append(tgaHeader(TGATypeTrueColorRLE, 4, 1, 24, 0), 0x83, 1, 2)},
		{"bad depth", append(tgaHeader(TGATypeTrueColor, 1, 1, 16, 0), 0, 0)},
		{"oversized header", tgaHeader(TGATypeTrueColor, 65535, 65535, 32, 0)},
		{"raw header larger than payload", append(tgaHeader(TGATypeTrueColor, 16384, 16384, 32, 0), 1, 2, 3, 4)},
		{"rle header larger than payload", append(tgaHeader(TGATypeTrueColorRLE, 16384, 16384, 32, 0), 0xFF, 1, 2, 3, 4)},
		{"color mapped", func() []byte {
			h := tgaHeader(TGATypeTrueColor, 1, 1, 24, 0)
			h[1] = 1
			return append(h, 0, 0, 0)
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Error("expected error")
			}
			if _, err := Decode(tt.data); !errors.Is(err, ErrDecode) {
				t.Errorf("Decode() error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestToNRGBAOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.SetRGBA(6, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	dst := ToNRGBA(src)
	if dst.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds = %v, want (0,0)-(2,1)", dst.Bounds())
	}
	if got := dst.NRGBAAt(1, 0); got != (color.NRGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Errorf("pixel = %v", got)
	}
}

func TestMipLevelCount(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{2048, 1024, 12},
		{3, 5, 3},
		{1, 1000, 10},
	}

	for _, tt := range tests {
		if got := MipLevelCount(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevelCount(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}
