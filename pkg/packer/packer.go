package packer

import (
	"path/filepath"
	"strconv"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/rs/zerolog"
)

// Packer packs the images of one directory
type Packer struct {
	root     string
	settings settings.Settings
	fs       filesystem.FS
	images   []string
	logger   zerolog.Logger
}

// Option customizes a Packer
type Option func(*Packer)

// WithFS sets the filesystem images are read from and pages written to
func WithFS(fsys filesystem.FS) Option {
	return func(p *Packer) { p.fs = fsys }
}

// New creates a packer. Region names are taken relative to root.
func New(root string, s settings.Settings, opts ...Option) *Packer {
	p := &Packer{
		root:     root,
		settings: settings.Clone(s),
		fs:       filesystem.NewOS(),
		logger:   logging.GetLogger("packer"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddImage queues an image for the next Pack
func (p *Packer) AddImage(path string) {
	p.images = append(p.images, path)
}

// Images returns the queued images
func (p *Packer) Images() []string {
	return p.images
}

// Pack lays out the queued images and writes pages named after imageName to
// outputDir, then appends them to outputDir/packFileName. Nothing is written
// when no image is queued or every image is blank.
func (p *Packer) Pack(outputDir, packFileName, imageName string) error {
	if len(p.images) == 0 {
		return nil
	}

	var sources, aliases []*source
	byHash := make(map[string]*source)
	for _, path := range p.images {
		src, err := load(p.fs, p.root, path, p.settings)
		if err != nil {
			return err
		}
		if src == nil {
			p.logger.Debug().Str("path", path).Msg("Skipping blank image")
			continue
		}
		if orig, ok := byHash[src.hash]; ok && p.settings.Alias {
			src.aliasOf = orig
			aliases = append(aliases, src)
			p.logger.Debug().Str("path", path).Str("alias", orig.path).Msg("Aliasing identical image")
			continue
		}
		byHash[src.hash] = src
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil
	}

	pages, err := layout(sources, p.settings)
	if err != nil {
		return err
	}

	if err := p.fs.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "cannot create output directory").
			WithDetail("path", outputDir)
	}

	written := make([]writtenPage, 0, len(pages))
	next := 0
	for _, page := range pages {
		file, idx := p.freePageName(outputDir, imageName, next)
		next = idx + 1

		data, err := encode(compose(page, p.settings), p.settings)
		if err != nil {
			return err
		}
		path := filepath.Join(outputDir, file)
		if err := p.fs.WriteFile(path, data, 0644); err != nil {
			return errors.Wrap(err, errors.ErrFileWrite, "cannot write page").WithDetail("path", path)
		}
		p.logger.Info().
			Str("page", path).
			Int("width", page.width).
			Int("height", page.height).
			Int("regions", len(page.placements)).
			Msg("Wrote page")

		written = append(written, writtenPage{
			file:    file,
			width:   page.width,
			height:  page.height,
			regions: regionsFor(page, aliases),
		})
	}

	return appendDescriptor(p.fs, filepath.Join(outputDir, packFileName), written, p.settings)
}

// freePageName returns the first page file name, starting at index from,
// that does not exist in dir yet
func (p *Packer) freePageName(dir, imageName string, from int) (string, int) {
	ext := "." + p.settings.ImageExtension()
	for idx := from; ; idx++ {
		name := PageName(imageName, idx, ext)
		if !filesystem.Exists(p.fs, filepath.Join(dir, name)) {
			return name, idx
		}
	}
}

// PageName is the file name of the idx-th page for imageName: the first page
// carries no number, the second is numbered 2.
func PageName(imageName string, idx int, ext string) string {
	if idx == 0 {
		return imageName + ext
	}
	return imageName + strconv.Itoa(idx+1) + ext
}
