package processor

import (
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/arthur-debert/texpack/pkg/packer"
	"github.com/arthur-debert/texpack/pkg/settings"
	"github.com/arthur-debert/texpack/pkg/walker"
	"github.com/moby/patternmatcher"
	"github.com/rs/zerolog"
)

// Engine packs the images of one directory
type Engine interface {
	AddImage(path string)
	Pack(outputDir, packFileName, imageName string) error
}

// EngineFactory creates the engine for one directory from the run's root and
// the directory's resolved settings
type EngineFactory func(root string, s settings.Settings) Engine

// Config configures a Processor
type Config struct {
	Defaults        settings.Settings
	PackFileName    string
	OverrideName    string
	Walk            walker.Options
	StaleExtensions []string
	DryRun          bool
}

// DefaultConfig returns the configuration of a stock run: flattened,
// recursive, png/jpg inputs, pack.atlas, pack.json overrides.
func DefaultConfig() Config {
	return Config{
		Defaults:        settings.Default(),
		PackFileName:    DefaultPackFileName,
		OverrideName:    settings.DefaultOverrideName,
		Walk:            walker.Options{InputSuffixes: walker.DefaultInputSuffixes, Flatten: true, Recursive: true},
		StaleExtensions: DefaultStaleExtensions,
	}
}

// Option customizes a Processor
type Option func(*Processor)

// WithFS sets the filesystem the run reads and cleans
func WithFS(fsys filesystem.FS) Option {
	return func(p *Processor) { p.fs = fsys }
}

// WithEngine replaces the packing engine
func WithEngine(factory EngineFactory) Option {
	return func(p *Processor) { p.engine = factory }
}

// Packed records what was done for one work unit
type Packed struct {
	Dir       string
	OutputDir string
	ImageName string
	Images    []string
	Settings  settings.Settings
}

// Processor runs cleanup, traversal and packing
type Processor struct {
	cfg          Config
	packFileName string
	stale        *regexp.Regexp
	fs           filesystem.FS
	walker       *walker.Walker
	engine       EngineFactory
	logger       zerolog.Logger

	packed  []Packed
	removed []string
	outputs map[string]*regexp.Regexp
}

// New creates a processor. The pack file name is normalized here and fixed
// for the processor's lifetime.
func New(cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}
	if cfg.OverrideName == "" {
		cfg.OverrideName = settings.DefaultOverrideName
	}

	p := &Processor{
		cfg:          cfg,
		packFileName: NormalizePackFileName(cfg.PackFileName),
		fs:           filesystem.NewOS(),
		logger:       logging.GetLogger("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.engine == nil {
		p.engine = defaultEngine(p.fs)
	}
	p.stale = StalePattern(p.packFileName, cfg.StaleExtensions)

	w, err := walker.New(p.fs, cfg.Walk)
	if err != nil {
		return nil, err
	}
	p.walker = w
	return p, nil
}

func defaultEngine(fsys filesystem.FS) EngineFactory {
	return func(root string, s settings.Settings) Engine {
		return packer.New(root, s, packer.WithFS(fsys))
	}
}

// PackFileName returns the normalized pack file name
func (p *Processor) PackFileName() string {
	return p.packFileName
}

// Packed returns the units handled by the last run, in order
func (p *Processor) Packed() []Packed {
	return p.packed
}

// Removed returns the stale files removed by the last run's cleanup
func (p *Processor) Removed() []string {
	return p.removed
}

// Process packs inputRoot into outputRoot. inputRoot is the root of the
// settings inheritance chain.
func (p *Processor) Process(inputRoot, outputRoot string) ([]walker.Entry, error) {
	input, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid input root").WithDetail("path", inputRoot)
	}
	info, err := p.fs.Stat(input)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrNotFound, "input root does not exist").WithDetail("path", input)
	}
	root := input
	if !info.IsDir() {
		root = filepath.Dir(input)
	}
	out, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid output root").WithDetail("path", outputRoot)
	}

	return p.run(root, out, func() ([]walker.WorkUnit, error) {
		return p.walker.Walk(input, out)
	})
}

// ProcessFiles packs an explicit list of files and directories. root is the
// root of the settings inheritance chain and must contain every path; when
// empty, the deepest directory containing all of them is used.
func (p *Processor) ProcessFiles(root string, files []string, outputRoot string) ([]walker.Entry, error) {
	if len(files) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no input files given")
	}
	abs := make([]string, len(files))
	for i, f := range files {
		a, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid input path").WithDetail("path", f)
		}
		abs[i] = a
	}
	out, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid output root").WithDetail("path", outputRoot)
	}

	if root == "" {
		root = commonParent(abs)
	} else if root, err = filepath.Abs(root); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "invalid input root")
	}
	for _, f := range abs {
		if f == root || !within(root, f) {
			return nil, errors.New(errors.ErrInvalidInput, "input is not inside root").
				WithDetail("root", root).
				WithDetail("path", f)
		}
	}

	return p.run(root, out, func() ([]walker.WorkUnit, error) {
		return p.walker.WalkFiles(root, abs, out)
	})
}

// plan is a work unit with its resolved settings and page base name
type plan struct {
	unit      walker.WorkUnit
	settings  settings.Settings
	imageName string
}

func (p *Processor) run(root, outputRoot string, walk func() ([]walker.WorkUnit, error)) ([]walker.Entry, error) {
	logger, _ := logging.WithRun(p.logger)
	logger = logger.With().Str("root", root).Str("output", outputRoot).Logger()
	defer logging.LogOperationStart(logger, "process")()

	p.packed = nil
	p.removed = nil
	p.outputs = nil
	if err := p.clean(outputRoot, p.stale, logger); err != nil {
		return nil, err
	}

	units, err := walk()
	if err != nil {
		return nil, err
	}
	orderUnits(units)
	units = outsideOutput(units, root, outputRoot)

	t := newTree(root)
	plans := make([]plan, 0, len(units))
	for _, unit := range units {
		s, err := p.resolveChain(t, root, unit.Dir, logger)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan{
			unit:      unit,
			settings:  s,
			imageName: imageBaseName(root, unit.Dir, p.packFileName, s),
		})
	}

	// Every directory written to loses the pages named after the units
	// writing there, before anything is packed.
	p.outputs = p.pagePatterns(plans)
	for _, dir := range sortedKeys(p.outputs) {
		if err := p.clean(dir, p.outputs[dir], logger); err != nil {
			return nil, err
		}
	}

	var entries []walker.Entry
	for _, pl := range plans {
		pl.unit.Files = p.withoutGenerated(pl.unit, logger)
		packed, err := p.packUnit(root, pl, logger)
		if err != nil {
			return entries, err
		}
		p.packed = append(p.packed, packed)
		entries = append(entries, pl.unit.Files...)
	}

	logger.Info().Int("units", len(units)).Int("files", len(entries)).Msg("Run complete")
	return entries, nil
}

// clean runs the cleanup stage on dir, recording each removed file once
func (p *Processor) clean(dir string, pattern *regexp.Regexp, logger zerolog.Logger) error {
	removed, err := cleanup(p.fs, dir, p.packFileName, pattern, p.cfg.DryRun, logger)
	for _, path := range removed {
		if !slices.Contains(p.removed, path) {
			p.removed = append(p.removed, path)
		}
	}
	return err
}

// pagePatterns maps each output directory to the pages its units generate
func (p *Processor) pagePatterns(plans []plan) map[string]*regexp.Regexp {
	bases := make(map[string][]string)
	for _, pl := range plans {
		dir := pl.unit.OutputDir
		if _, ok := bases[dir]; !ok {
			bases[dir] = []string{packBaseName(p.packFileName)}
		}
		if !slices.Contains(bases[dir], pl.imageName) {
			bases[dir] = append(bases[dir], pl.imageName)
		}
	}
	patterns := make(map[string]*regexp.Regexp, len(bases))
	for dir, names := range bases {
		patterns[dir] = pagePattern(names, p.cfg.StaleExtensions)
	}
	return patterns
}

// withoutGenerated drops unit files that are pages or descriptors of this
// run, which happens when the output tree overlaps the input tree
func (p *Processor) withoutGenerated(unit walker.WorkUnit, logger zerolog.Logger) []walker.Entry {
	pattern, ok := p.outputs[unit.Dir]
	if !ok {
		return unit.Files
	}
	files := make([]walker.Entry, 0, len(unit.Files))
	for _, f := range unit.Files {
		name := filepath.Base(f.InputFile)
		if name == p.packFileName || pattern.MatchString(name) {
			logger.Trace().Str("path", f.InputFile).Msg("Skipping generated page")
			continue
		}
		files = append(files, f)
	}
	return files
}

// Generated reports whether path is a descriptor or page that the last run
// removed or writes
func (p *Processor) Generated(path string) bool {
	pattern, ok := p.outputs[filepath.Dir(path)]
	if !ok {
		return false
	}
	name := filepath.Base(path)
	return name == p.packFileName || pattern.MatchString(name)
}

func (p *Processor) packUnit(root string, pl plan, logger zerolog.Logger) (Packed, error) {
	unit, s := pl.unit, pl.settings
	images, err := filterIgnored(unit, s.Ignore)
	if err != nil {
		return Packed{}, err
	}

	packed := Packed{
		Dir:       unit.Dir,
		OutputDir: unit.OutputDir,
		ImageName: pl.imageName,
		Images:    images,
		Settings:  s,
	}
	logger.Info().
		Str("dir", unit.Dir).
		Str("image", pl.imageName).
		Int("images", len(images)).
		Msg("Packing directory")

	if p.cfg.DryRun {
		return packed, nil
	}

	engine := p.engine(root, s)
	for _, img := range images {
		engine.AddImage(img)
	}
	if err := engine.Pack(unit.OutputDir, p.packFileName, pl.imageName); err != nil {
		return packed, errors.Wrap(err, errors.ErrPack, "packing failed").WithDetail("dir", unit.Dir)
	}
	return packed, nil
}

// resolveChain resolves every directory from root down to dir and returns
// dir's settings
func (p *Processor) resolveChain(t *tree, root, dir string, logger zerolog.Logger) (settings.Settings, error) {
	var s settings.Settings
	for _, d := range chain(root, dir) {
		var err error
		if s, err = p.resolve(t, d, logger); err != nil {
			return settings.Settings{}, err
		}
	}
	return s, nil
}

// resolve returns dir's effective settings, resolving them on first visit
func (p *Processor) resolve(t *tree, dir string, logger zerolog.Logger) (settings.Settings, error) {
	if s, ok := t.lookup(dir); ok {
		return s, nil
	}

	idx := t.nodeFor(dir)
	base, from := t.base(idx, p.cfg.Defaults)
	t.store(idx, base)

	doc, err := settings.LoadOverride(p.fs, dir, p.cfg.OverrideName)
	if err != nil {
		return settings.Settings{}, err
	}
	logger.Trace().Str("dir", dir).Str("inherited", from).Bool("override", doc != nil).Msg("Resolving settings")
	if doc == nil {
		return base, nil
	}

	merged, err := settings.Overlay(base, doc)
	if err != nil {
		texErr, ok := errors.AsTexpackError(err)
		if !ok {
			texErr = errors.Wrap(err, errors.ErrOverrideParse, "invalid override document")
		}
		return settings.Settings{}, texErr.WithDetail("path", filepath.Join(dir, p.cfg.OverrideName))
	}
	t.store(idx, merged)
	return merged, nil
}

// ResolveSettings returns the settings a run rooted at root would use for
// dir, resolving every directory on the way down from root first.
func (p *Processor) ResolveSettings(root, dir string) (settings.Settings, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid root")
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, errors.ErrInvalidInput, "invalid directory")
	}
	if !within(root, dir) {
		return settings.Settings{}, errors.New(errors.ErrInvalidInput, "directory is not inside root").
			WithDetail("root", root).
			WithDetail("dir", dir)
	}

	return p.resolveChain(newTree(root), root, dir, p.logger)
}

// orderUnits puts ancestors ahead of descendants, keeping the traversal
// order otherwise. Walks from a single root are already in this order;
// explicit file lists may not be.
func orderUnits(units []walker.WorkUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		return depth(units[i].Dir) < depth(units[j].Dir)
	})
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}

func filterIgnored(unit walker.WorkUnit, patterns []string) ([]string, error) {
	images := make([]string, 0, len(unit.Files))
	if len(patterns) == 0 {
		for _, f := range unit.Files {
			images = append(images, f.InputFile)
		}
		return images, nil
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "invalid ignore pattern").
			WithDetail("dir", unit.Dir).
			WithDetail("patterns", patterns)
	}
	for _, f := range unit.Files {
		matched, err := pm.MatchesOrParentMatches(filepath.Base(f.InputFile))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigValid, "cannot match ignore pattern").WithDetail("path", f.InputFile)
		}
		if !matched {
			images = append(images, f.InputFile)
		}
	}
	return images, nil
}

// chain lists the directories from root down to dir, both included. A dir
// outside root is a chain of its own.
func chain(root, dir string) []string {
	if !within(root, dir) {
		return []string{dir}
	}
	dirs := []string{root}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return dirs
	}
	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		dirs = append(dirs, cur)
	}
	return dirs
}

// outsideOutput drops units inside an output root nested in the input tree
func outsideOutput(units []walker.WorkUnit, root, outputRoot string) []walker.WorkUnit {
	if outputRoot == root || !within(root, outputRoot) {
		return units
	}
	kept := units[:0]
	for _, u := range units {
		if !within(outputRoot, u.Dir) {
			kept = append(kept, u)
		}
	}
	return kept
}

func sortedKeys(m map[string]*regexp.Regexp) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// commonParent returns the deepest directory that contains every path's
// parent directory
func commonParent(paths []string) string {
	common := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for !within(common, dir) {
			next := filepath.Dir(common)
			if next == common {
				break
			}
			common = next
		}
	}
	return common
}

func within(parent, path string) bool {
	if parent == path {
		return true
	}
	prefix := parent
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
