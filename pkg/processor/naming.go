package processor

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/texpack/pkg/settings"
)

// DefaultPackFileName is used when no pack file name is configured
const DefaultPackFileName = "pack.atlas"

// DefaultAtlasExtension is appended to pack file names given without one
const DefaultAtlasExtension = ".atlas"

// NormalizePackFileName makes sure name carries an extension
func NormalizePackFileName(name string) string {
	if name == "" {
		return DefaultPackFileName
	}
	if !strings.Contains(name, ".") {
		return name + DefaultAtlasExtension
	}
	return name
}

// packBaseName strips the last extension of a pack file name
func packBaseName(packFileName string) string {
	if dot := strings.LastIndex(packFileName, "."); dot != -1 {
		return packFileName[:dot]
	}
	return packFileName
}

// imageBaseName picks the name generated pages are based on. The root and
// directories that do not use their own name share the pack file's base
// name; the others are named after the directory.
func imageBaseName(root, dir, packFileName string, s settings.Settings) string {
	if filepath.Clean(dir) == filepath.Clean(root) || !s.UseDirNameAsInnerFolderName {
		return packBaseName(packFileName)
	}
	return filepath.Base(dir)
}
