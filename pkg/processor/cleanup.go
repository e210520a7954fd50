package processor

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/rs/zerolog"
)

// DefaultStaleExtensions are the page extensions removed by cleanup
var DefaultStaleExtensions = []string{"png", "jpg"}

// StalePattern matches pages generated for packFileName by a previous run:
// the pack file's base name, optional digits, then one of exts.
//
//	pack.atlas, [png jpg]  =>  ^pack\d*\.(png|jpg)$
func StalePattern(packFileName string, exts []string) *regexp.Regexp {
	return pagePattern([]string{packBaseName(packFileName)}, exts)
}

// pagePattern matches pages named after any of bases
func pagePattern(bases []string, exts []string) *regexp.Regexp {
	if len(exts) == 0 {
		exts = DefaultStaleExtensions
	}
	quoted := make([]string, len(exts))
	for i, ext := range exts {
		quoted[i] = regexp.QuoteMeta(strings.TrimPrefix(ext, "."))
	}
	names := make([]string, len(bases))
	for i, base := range bases {
		names[i] = regexp.QuoteMeta(base)
	}
	prefix := names[0]
	if len(names) > 1 {
		prefix = `(?:` + strings.Join(names, "|") + `)`
	}
	return regexp.MustCompile(`^` + prefix + `\d*\.(` + strings.Join(quoted, "|") + `)$`)
}

// cleanup removes the pack file and stale pages directly inside outputRoot,
// which may also be any other directory a unit writes into.
// Nothing happens when outputRoot does not exist. Files that vanish before
// they can be removed are ignored; any other removal failure is returned.
func cleanup(fsys filesystem.FS, outputRoot, packFileName string, pattern *regexp.Regexp, dryRun bool, logger zerolog.Logger) ([]string, error) {
	info, err := fsys.Stat(outputRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCleanup, "cannot access output root").
			WithDetail("path", outputRoot)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCleanup, "output root is not a directory").
			WithDetail("path", outputRoot)
	}

	entries, err := fsys.ReadDir(outputRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCleanup, "cannot list output root").
			WithDetail("path", outputRoot)
	}

	targets := []string{filepath.Join(outputRoot, packFileName)}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == packFileName {
			continue
		}
		if pattern.MatchString(entry.Name()) {
			targets = append(targets, filepath.Join(outputRoot, entry.Name()))
		}
	}

	var removed []string
	for _, target := range targets {
		if dryRun {
			if filesystem.Exists(fsys, target) {
				logger.Info().Str("path", target).Msg("Would remove stale output")
				removed = append(removed, target)
			}
			continue
		}
		if err := fsys.Remove(target); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, errors.Wrap(err, errors.ErrCleanup, "cannot remove stale output").
				WithDetail("path", target)
		}
		logger.Debug().Str("path", target).Msg("Removed stale output")
		removed = append(removed, target)
	}
	return removed, nil
}
