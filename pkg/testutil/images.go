package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// Common fixture colors
var (
	Red         = color.NRGBA{R: 255, A: 255}
	Green       = color.NRGBA{G: 255, A: 255}
	Blue        = color.NRGBA{B: 255, A: 255}
	Transparent = color.NRGBA{}
)

// SolidImage returns a w x h image filled with c
func SolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// FramedImage returns a w x h transparent image with an opaque c rectangle
// inset by margin on every side
func FramedImage(w, h, margin int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := margin; y < h-margin; y++ {
		for x := margin; x < w-margin; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// PNG encodes img as PNG
func PNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// SolidPNG is PNG(SolidImage(w, h, c))
func SolidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	return PNG(t, SolidImage(w, h, c))
}

// SolidJPEG encodes a solid image as JPEG
func SolidJPEG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, SolidImage(w, h, c), nil); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// DecodeImage decodes PNG or JPEG bytes
func DecodeImage(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode image: %v", err)
	}
	return img
}
