package walker

import (
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/moby/patternmatcher"
	"github.com/rs/zerolog"
)

// DefaultInputSuffixes are the source image extensions collected by default
var DefaultInputSuffixes = []string{".png", ".jpg"}

// Options configures a traversal
type Options struct {
	// InputSuffixes restricts collected files by extension, case-insensitively.
	InputSuffixes []string
	// Excludes are patternmatcher patterns relative to the traversal base.
	Excludes []string
	// Flatten puts every unit's output in the output root instead of
	// mirroring the input nesting.
	Flatten bool
	// Recursive descends into subdirectories.
	Recursive bool
}

// Entry is one collected input file
type Entry struct {
	InputFile  string
	OutputDir  string
	OutputFile string
	Depth      int
}

// WorkUnit is one directory with its direct matching files
type WorkUnit struct {
	Dir       string
	OutputDir string
	Depth     int
	Files     []Entry
}

// Walker collects work units from a filesystem
type Walker struct {
	fs       filesystem.FS
	opts     Options
	excludes *patternmatcher.PatternMatcher
	logger   zerolog.Logger
}

// New creates a walker. Unset suffixes fall back to DefaultInputSuffixes.
func New(fsys filesystem.FS, opts Options) (*Walker, error) {
	if err := mergo.Merge(&opts, Options{InputSuffixes: DefaultInputSuffixes}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot apply walker defaults")
	}

	pm, err := patternmatcher.New(opts.Excludes)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid exclude pattern").
			WithDetail("patterns", opts.Excludes)
	}

	return &Walker{
		fs:       fsys,
		opts:     opts,
		excludes: pm,
		logger:   logging.GetLogger("walker"),
	}, nil
}

// Options returns the effective options, defaults applied
func (w *Walker) Options() Options {
	return w.opts
}

// Walk lists inputRoot and collects units for it and, when recursive, all
// directories below it. A file input yields a single unit for its parent.
func (w *Walker) Walk(inputRoot, outputRoot string) ([]WorkUnit, error) {
	info, err := w.fs.Stat(inputRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "cannot access input").
			WithDetail("path", inputRoot)
	}
	if !info.IsDir() {
		return w.WalkFiles(filepath.Dir(inputRoot), []string{inputRoot}, outputRoot)
	}

	children, err := w.list(inputRoot)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		// An empty root still gets a unit so its settings resolve.
		return []WorkUnit{{Dir: inputRoot, OutputDir: outputRoot}}, nil
	}
	return w.WalkFiles(inputRoot, children, outputRoot)
}

// WalkFiles collects units for an explicit list of files and directories
// below base. base anchors the exclude patterns and the mirrored output
// layout, so a listed file lands where a full walk of base would put it.
func (w *Walker) WalkFiles(base string, paths []string, outputRoot string) ([]WorkUnit, error) {
	c := &collector{units: make(map[string]*WorkUnit)}
	if err := w.collect(c, base, paths, outputRoot); err != nil {
		return nil, err
	}

	units := make([]WorkUnit, 0, len(c.order))
	for _, dir := range c.order {
		units = append(units, *c.units[dir])
	}
	w.logger.Debug().Int("units", len(units)).Str("base", base).Msg("Traversal complete")
	return units, nil
}

type collector struct {
	order []string
	units map[string]*WorkUnit
}

func (c *collector) ensure(dir, outputDir string, depth int) *WorkUnit {
	if unit, ok := c.units[dir]; ok {
		return unit
	}
	unit := &WorkUnit{Dir: dir, OutputDir: outputDir, Depth: depth}
	c.units[dir] = unit
	c.order = append(c.order, dir)
	return unit
}

// placement maps dir to its mirrored output directory and its depth below
// base. Directories outside base map to the output root.
func placement(base, dir, outputRoot string) (string, int) {
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return outputRoot, 0
	}
	return filepath.Join(outputRoot, rel), strings.Count(rel, string(filepath.Separator)) + 1
}

func (w *Walker) register(c *collector, base, dir, outputRoot string) *WorkUnit {
	mirror, depth := placement(base, dir, outputRoot)
	if w.opts.Flatten {
		return c.ensure(dir, outputRoot, depth)
	}
	return c.ensure(dir, mirror, depth)
}

func (w *Walker) collect(c *collector, base string, paths []string, outputRoot string) error {
	// Register every parent first so a directory precedes its children.
	for _, path := range paths {
		w.register(c, base, filepath.Dir(path), outputRoot)
	}

	for _, path := range paths {
		name := filepath.Base(path)
		if strings.HasPrefix(name, ".") {
			continue
		}
		excluded, err := w.excluded(base, path)
		if err != nil {
			return err
		}
		if excluded {
			w.logger.Trace().Str("path", path).Msg("Excluded")
			continue
		}

		info, err := w.fs.Stat(path)
		if err != nil {
			return errors.Wrap(err, errors.ErrTraversal, "cannot stat input").WithDetail("path", path)
		}

		if !info.IsDir() {
			if !w.matchesSuffix(name) {
				continue
			}
			dir := filepath.Dir(path)
			unit := w.register(c, base, dir, outputRoot)
			mirror, _ := placement(base, dir, outputRoot)
			unit.Files = append(unit.Files, Entry{
				InputFile:  path,
				OutputDir:  mirror,
				OutputFile: filepath.Join(unit.OutputDir, name),
				Depth:      unit.Depth,
			})
			continue
		}

		if !w.opts.Recursive {
			continue
		}
		children, err := w.list(path)
		if err != nil {
			return err
		}
		if err := w.collect(c, base, children, outputRoot); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) list(dir string) ([]string, error) {
	entries, err := w.fs.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTraversal, "cannot read directory").WithDetail("path", dir)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func (w *Walker) excluded(base, path string) (bool, error) {
	if len(w.opts.Excludes) == 0 {
		return false, nil
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		rel = path
	}
	matched, err := w.excludes.MatchesOrParentMatches(rel)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrTraversal, "cannot match exclude patterns").WithDetail("path", path)
	}
	return matched, nil
}

func (w *Walker) matchesSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range w.opts.InputSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}
