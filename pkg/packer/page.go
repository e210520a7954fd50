package packer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/settings"
)

// compose draws a laid out page
func compose(page *pageLayout, s settings.Settings) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, page.width, page.height))
	for _, p := range page.placements {
		blit(canvas, p)
		if s.DuplicatePadding {
			duplicateEdges(canvas, p, s.PaddingX/2, s.PaddingY/2)
		}
	}
	if s.PremultiplyAlpha {
		premultiply(canvas)
	}
	return canvas
}

// blit copies a source into place, turning it 90 degrees clockwise when
// rotated
func blit(dst *image.NRGBA, p placement) {
	src := p.src.img
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := src.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			if p.rotated {
				dst.SetNRGBA(p.x+b.Dy()-1-y, p.y+x, c)
			} else {
				dst.SetNRGBA(p.x+x, p.y+y, c)
			}
		}
	}
}

// duplicateEdges extends a placed region's border pixels dx/dy pixels into
// its padding
func duplicateEdges(dst *image.NRGBA, p placement, dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	x0, y0 := p.x, p.y
	x1, y1 := p.x+p.w()-1, p.y+p.h()-1
	bounds := dst.Bounds()
	for y := y0 - dy; y <= y1+dy; y++ {
		for x := x0 - dx; x <= x1+dx; x++ {
			if (x >= x0 && x <= x1 && y >= y0 && y <= y1) || !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			dst.SetNRGBA(x, y, dst.NRGBAAt(clamp(x, x0, x1), clamp(y, y0, y1)))
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func premultiply(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			a := uint32(c.A)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(uint32(c.R) * a / 255),
				G: uint8(uint32(c.G) * a / 255),
				B: uint8(uint32(c.B) * a / 255),
				A: c.A,
			})
		}
	}
}

// encode writes img in the configured output format
func encode(img image.Image, s settings.Settings) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch s.ImageExtension() {
	case "jpg":
		quality := int(math.Round(s.JPEGQuality * 100))
		if quality < 1 {
			quality = 1
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrImageEncode, "cannot encode page").
			WithDetail("format", s.OutputFormat)
	}
	return buf.Bytes(), nil
}
