package packer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/arthur-debert/texpack/pkg/settings"
)

// source is a decoded input image, trimmed and ready to place
type source struct {
	path  string
	name  string
	index int

	img *image.NRGBA
	// original size and the trimmed rectangle within it
	origW, origH int
	offX, offY   int

	hash    string
	aliasOf *source
}

func (s *source) width() int  { return s.img.Bounds().Dx() }
func (s *source) height() int { return s.img.Bounds().Dy() }

var indexSuffix = regexp.MustCompile(`^(.*)_(\d+)$`)

// regionName returns the region name and index for path
func regionName(root, path string, s settings.Settings) (string, int) {
	name := path
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		name = rel
	}
	if s.FlattenPaths {
		name = filepath.Base(name)
	}
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = filepath.ToSlash(name)

	index := -1
	if s.UseIndexes {
		if m := indexSuffix.FindStringSubmatch(name); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil {
				name, index = m[1], n
			}
		}
	}
	return name, index
}

// load decodes path and applies whitespace stripping. A nil source with a
// nil error means the image was blank and skipped.
func load(fsys filesystem.FS, root, path string, s settings.Settings) (*source, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot read image").WithDetail("path", path)
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrImageDecode, "cannot decode image").WithDetail("path", path)
	}

	b := decoded.Bounds()
	full := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(full, full.Bounds(), decoded, b.Min, draw.Src)

	src := &source{path: path, origW: b.Dx(), origH: b.Dy()}
	src.name, src.index = regionName(root, path, s)

	trim := opaqueBounds(full, s)
	if trim.Empty() {
		if s.IgnoreBlankImages {
			return nil, nil
		}
		trim = image.Rect(0, 0, 1, 1)
	}
	src.img = full.SubImage(trim).(*image.NRGBA)
	src.offX = trim.Min.X
	// offsets are measured from the bottom left, as the descriptor expects
	src.offY = src.origH - trim.Max.Y
	src.hash = pixelHash(src.img)
	return src, nil
}

// opaqueBounds returns the smallest rectangle holding every pixel above the
// alpha threshold, on the axes that strip whitespace. Axes that do not strip
// keep their full extent unless the image is entirely blank.
func opaqueBounds(img *image.NRGBA, s settings.Settings) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	threshold := uint8(s.AlphaThreshold)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A <= threshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x+1 > maxX {
				maxX = x + 1
			}
			if y < minY {
				minY = y
			}
			if y+1 > maxY {
				maxY = y + 1
			}
		}
	}
	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}
	}
	if !s.StripWhitespaceX {
		minX, maxX = b.Min.X, b.Max.X
	}
	if !s.StripWhitespaceY {
		minY, maxY = b.Min.Y, b.Max.Y
	}
	return image.Rect(minX, minY, maxX, maxY)
}

func pixelHash(img *image.NRGBA) string {
	h := sha256.New()
	b := img.Bounds()
	h.Write([]byte(strconv.Itoa(b.Dx()) + "x" + strconv.Itoa(b.Dy())))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[start : start+4*b.Dx()])
	}
	return hex.EncodeToString(h.Sum(nil))
}
