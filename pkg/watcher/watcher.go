// Package watcher rebuilds atlases when their input tree changes.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is the quiet period used when none is configured
const DefaultDebounce = 500 * time.Millisecond

// Option customizes a watch
type Option func(*watch)

// WithIgnore skips events under the given paths, typically an output root
// that lives inside the input tree. A path that is the watched root or
// contains it is not ignored; use WithSkip to filter generated files there.
func WithIgnore(paths ...string) Option {
	return func(w *watch) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// WithSkip drops events for which skip returns true, such as the pages a
// run writes next to its inputs
func WithSkip(skip func(path string) bool) Option {
	return func(w *watch) { w.skip = skip }
}

// WithReady is called once the input tree is being watched
func WithReady(fn func()) Option {
	return func(w *watch) { w.ready = fn }
}

// WithRunResult receives the error of every run, nil on success
func WithRunResult(fn func(error)) Option {
	return func(w *watch) { w.result = fn }
}

type watch struct {
	root     string
	debounce time.Duration
	run      func() error
	ignore   []string
	skip     func(path string) bool
	ready    func()
	result   func(error)
	fsw      *fsnotify.Watcher
	logger   zerolog.Logger
}

// Watch calls run after every burst of changes below inputRoot, once no
// change has been seen for debounce. Runs never overlap: events arriving
// during a run schedule the next one. Watch returns when ctx is done.
func Watch(ctx context.Context, inputRoot string, debounce time.Duration, run func() error, opts ...Option) error {
	root, err := filepath.Abs(inputRoot)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "invalid watch root").WithDetail("path", inputRoot)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "cannot create file watcher")
	}
	defer func() { _ = fsw.Close() }()

	w := &watch{
		root:     root,
		debounce: debounce,
		run:      run,
		fsw:      fsw,
		logger:   logging.GetLogger("watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ignore = w.ignoreBelowRoot()

	if err := w.addTree(root); err != nil {
		return err
	}
	w.logger.Info().Str("root", root).Dur("debounce", debounce).Msg("Watching for changes")
	if w.ready != nil {
		w.ready()
	}
	return w.loop(ctx)
}

func (w *watch) loop(ctx context.Context) error {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Debug().Msg("Watch stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Trace().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			if event.Has(fsnotify.Create) {
				if err := w.addTree(event.Name); err != nil {
					w.logger.Warn().Err(err).Str("path", event.Name).Msg("Cannot watch new directory")
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("File watcher error")

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.runOnce()
		}
	}
}

func (w *watch) runOnce() {
	start := time.Now()
	err := w.run()
	if err != nil {
		w.logger.Error().Err(err).Msg("Rebuild failed")
	} else {
		w.logger.Info().Dur("duration", time.Since(start)).Msg("Rebuilt")
	}
	if w.result != nil {
		w.result(err)
	}
}

// relevant filters out attribute changes, hidden files and ignored paths
func (w *watch) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return false
	}
	if w.skip != nil && w.skip(event.Name) {
		return false
	}
	return !w.ignored(event.Name)
}

// ignoreBelowRoot keeps the ignored paths strictly inside the root; one
// covering the root would silence every event
func (w *watch) ignoreBelowRoot() []string {
	kept := make([]string, 0, len(w.ignore))
	for _, path := range w.ignore {
		if path == w.root || strings.HasPrefix(w.root, path+string(filepath.Separator)) {
			w.logger.Debug().Str("path", path).Msg("Not ignoring a path that contains the watch root")
			continue
		}
		kept = append(kept, path)
	}
	return kept
}

func (w *watch) ignored(path string) bool {
	for _, prefix := range w.ignore {
		if path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it. Non-directories are
// ignored.
func (w *watch) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return nil
			}
			return errors.Wrap(err, errors.ErrTraversal, "cannot walk directory").WithDetail("path", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, "cannot watch directory").WithDetail("path", path)
		}
		return nil
	})
}
