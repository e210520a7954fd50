package packer

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/beevik/etree"
)

// region is one descriptor entry
type region struct {
	name    string
	index   int
	x, y    int
	w, h    int
	origW   int
	origH   int
	offX    int
	offY    int
	rotated bool
}

// writtenPage is a page file together with its regions
type writtenPage struct {
	file          string
	width, height int
	regions       []region
}

// regionsFor lists a page's regions, aliases included, ordered by name and
// index
func regionsFor(page *pageLayout, aliases []*source) []region {
	placed := make(map[*source]placement, len(page.placements))
	var out []region
	for _, p := range page.placements {
		placed[p.src] = p
		out = append(out, newRegion(p.src, p))
	}
	for _, alias := range aliases {
		if p, ok := placed[alias.aliasOf]; ok {
			out = append(out, newRegion(alias, p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].index < out[j].index
	})
	return out
}

func newRegion(src *source, p placement) region {
	return region{
		name:    src.name,
		index:   src.index,
		x:       p.x,
		y:       p.y,
		w:       src.width(),
		h:       src.height(),
		origW:   src.origW,
		origH:   src.origH,
		offX:    src.offX,
		offY:    src.offY,
		rotated: p.rotated,
	}
}

// appendDescriptor adds pages to the descriptor at path, creating it when
// missing
func appendDescriptor(fsys filesystem.FS, path string, pages []writtenPage, s settings.Settings) error {
	existing, err := fsys.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrFileAccess, "cannot read descriptor").WithDetail("path", path)
	}

	var data []byte
	switch s.Descriptor {
	case settings.DescriptorXML:
		data, err = appendXML(existing, pages)
		if err != nil {
			return errors.Wrap(err, errors.ErrPack, "cannot update xml descriptor").WithDetail("path", path)
		}
	default:
		data = append(existing, []byte(gdxText(pages, s))...)
	}

	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "cannot write descriptor").WithDetail("path", path)
	}
	return nil
}

func gdxText(pages []writtenPage, s settings.Settings) string {
	var b strings.Builder
	for _, page := range pages {
		fmt.Fprintf(&b, "\n%s\n", page.file)
		fmt.Fprintf(&b, "size: %d, %d\n", page.width, page.height)
		fmt.Fprintf(&b, "format: %s\n", s.Format)
		fmt.Fprintf(&b, "filter: %s, %s\n", s.FilterMin, s.FilterMag)
		fmt.Fprintf(&b, "repeat: %s\n", repeatValue(s))
		for _, r := range page.regions {
			fmt.Fprintf(&b, "%s\n", r.name)
			fmt.Fprintf(&b, "  rotate: %t\n", r.rotated)
			fmt.Fprintf(&b, "  xy: %d, %d\n", r.x, r.y)
			fmt.Fprintf(&b, "  size: %d, %d\n", r.w, r.h)
			fmt.Fprintf(&b, "  orig: %d, %d\n", r.origW, r.origH)
			fmt.Fprintf(&b, "  offset: %d, %d\n", r.offX, r.offY)
			fmt.Fprintf(&b, "  index: %d\n", r.index)
		}
	}
	return b.String()
}

func repeatValue(s settings.Settings) string {
	x, y := s.WrapX == "Repeat", s.WrapY == "Repeat"
	switch {
	case x && y:
		return "xy"
	case x:
		return "x"
	case y:
		return "y"
	}
	return "none"
}

// appendXML adds one TextureAtlas element per page under a TextureAtlases
// root, Starling style
func appendXML(existing []byte, pages []writtenPage) ([]byte, error) {
	doc := etree.NewDocument()
	if len(existing) > 0 {
		if err := doc.ReadFromBytes(existing); err != nil {
			return nil, err
		}
	} else {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}

	root := doc.SelectElement("TextureAtlases")
	if root == nil {
		root = doc.CreateElement("TextureAtlases")
	}

	for _, page := range pages {
		atlas := root.CreateElement("TextureAtlas")
		atlas.CreateAttr("imagePath", page.file)
		atlas.CreateAttr("width", strconv.Itoa(page.width))
		atlas.CreateAttr("height", strconv.Itoa(page.height))
		for _, r := range page.regions {
			sub := atlas.CreateElement("SubTexture")
			name := r.name
			if r.index >= 0 {
				name += "_" + strconv.Itoa(r.index)
			}
			sub.CreateAttr("name", name)
			sub.CreateAttr("x", strconv.Itoa(r.x))
			sub.CreateAttr("y", strconv.Itoa(r.y))
			sub.CreateAttr("width", strconv.Itoa(r.w))
			sub.CreateAttr("height", strconv.Itoa(r.h))
			if r.w != r.origW || r.h != r.origH {
				sub.CreateAttr("frameX", strconv.Itoa(-r.offX))
				sub.CreateAttr("frameY", strconv.Itoa(-(r.origH - r.offY - r.h)))
				sub.CreateAttr("frameWidth", strconv.Itoa(r.origW))
				sub.CreateAttr("frameHeight", strconv.Itoa(r.origH))
			}
			if r.rotated {
				sub.CreateAttr("rotated", "true")
			}
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}
