package packer

import (
	"sort"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/settings"
)

// placement is where one source lands
type placement struct {
	src     *source
	page    int
	x, y    int
	rotated bool
}

// w and h are the placed size, swapped when rotated
func (p placement) w() int {
	if p.rotated {
		return p.src.height()
	}
	return p.src.width()
}

func (p placement) h() int {
	if p.rotated {
		return p.src.width()
	}
	return p.src.height()
}

// pageLayout is one laid out page
type pageLayout struct {
	width, height int
	placements    []placement
}

type shelfPacker struct {
	s            settings.Settings
	edgeX, edgeY int
	pages        []*pageLayout
	x, y, shelfH int
	usedW, usedH int
}

func newShelfPacker(s settings.Settings) *shelfPacker {
	sp := &shelfPacker{s: s}
	if s.EdgePadding {
		sp.edgeX, sp.edgeY = s.PaddingX, s.PaddingY
	}
	return sp
}

func (sp *shelfPacker) fits(w, h int) bool {
	return sp.edgeX*2+w <= sp.s.MaxWidth && sp.edgeY*2+h <= sp.s.MaxHeight
}

// layout places sources on as many pages as needed. Sources are placed
// tallest first; ties keep name order so output is stable.
func layout(sources []*source, s settings.Settings) ([]*pageLayout, error) {
	sorted := make([]*source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		hi, hj := sorted[i].height(), sorted[j].height()
		if hi != hj {
			return hi > hj
		}
		if sorted[i].name != sorted[j].name {
			return sorted[i].name < sorted[j].name
		}
		return sorted[i].index < sorted[j].index
	})

	sp := newShelfPacker(s)
	for _, src := range sorted {
		p := placement{src: src}
		if !sp.fits(p.w(), p.h()) {
			p.rotated = true
			if !s.Rotation || !sp.fits(p.w(), p.h()) {
				return nil, errors.New(errors.ErrImageTooBig, "image does not fit on a page").
					WithDetail("path", src.path).
					WithDetail("width", src.width()).
					WithDetail("height", src.height()).
					WithDetail("maxWidth", s.MaxWidth).
					WithDetail("maxHeight", s.MaxHeight)
			}
		}
		sp.place(p)
	}
	sp.finishPage()
	return sp.pages, nil
}

func (sp *shelfPacker) place(p placement) {
	if len(sp.pages) == 0 {
		sp.openPage()
	}
	w, h := p.w(), p.h()

	if sp.x+w+sp.edgeX > sp.s.MaxWidth {
		sp.x = sp.edgeX
		sp.y += sp.shelfH + sp.s.PaddingY
		sp.shelfH = 0
	}
	if sp.y+h+sp.edgeY > sp.s.MaxHeight {
		sp.finishPage()
		sp.openPage()
	}

	p.page = len(sp.pages) - 1
	p.x, p.y = sp.x, sp.y
	page := sp.pages[p.page]
	page.placements = append(page.placements, p)

	sp.x += w + sp.s.PaddingX
	if h > sp.shelfH {
		sp.shelfH = h
	}
	if p.x+w > sp.usedW {
		sp.usedW = p.x + w
	}
	if p.y+h > sp.usedH {
		sp.usedH = p.y + h
	}
}

func (sp *shelfPacker) openPage() {
	sp.pages = append(sp.pages, &pageLayout{})
	sp.x, sp.y, sp.shelfH = sp.edgeX, sp.edgeY, 0
	sp.usedW, sp.usedH = 0, 0
}

func (sp *shelfPacker) finishPage() {
	if len(sp.pages) == 0 {
		return
	}
	page := sp.pages[len(sp.pages)-1]
	page.width, page.height = pageSize(sp.usedW+sp.edgeX, sp.usedH+sp.edgeY, sp.s)
}

// pageSize grows a used area to the page size constraints
func pageSize(w, h int, s settings.Settings) (int, int) {
	if w < s.MinWidth {
		w = s.MinWidth
	}
	if h < s.MinHeight {
		h = s.MinHeight
	}
	if s.PowerOfTwo {
		w, h = nextPowerOfTwo(w), nextPowerOfTwo(h)
	}
	if s.Square {
		if w > h {
			h = w
		} else {
			w = h
		}
	}
	return w, h
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
