package filesystem

import (
	"io/fs"
	"os"

	"github.com/moby/sys/atomicwriter"
	"github.com/spf13/afero"
)

// FS is the set of filesystem operations texpack needs
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
	ReadDir(name string) ([]fs.DirEntry, error)
}

// aferoFS implements FS using afero
type aferoFS struct {
	fs     afero.Fs
	atomic bool
}

// NewOS returns the OS filesystem. Writes go through a temp file and rename.
func NewOS() FS {
	return &aferoFS{fs: afero.NewOsFs(), atomic: true}
}

// NewMemory returns an empty in-memory filesystem
func NewMemory() FS {
	return NewAferoFS(afero.NewMemMapFs())
}

// NewAferoFS creates a new afero filesystem implementation
func NewAferoFS(fs afero.Fs) FS {
	_, isOS := fs.(*afero.OsFs)
	return &aferoFS{fs: fs, atomic: isOS}
}

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if a.atomic {
		return atomicwriter.WriteFile(name, data, perm)
	}
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

// ReadDir returns the entries of a directory sorted by name
func (a *aferoFS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	dirEntries := make([]fs.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = fs.FileInfoToDirEntry(entry)
	}
	return dirEntries, nil
}

// Exists reports whether name exists. Errors other than not-exist count as existing
// so callers surface them on the next real operation.
func Exists(fsys FS, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil || !os.IsNotExist(err)
}

// IsDir reports whether name exists and is a directory
func IsDir(fsys FS, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && info.IsDir()
}
