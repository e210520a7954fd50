// Package topics serves long-form help topics: markdown or text documents
// shipped with the binary that explain concepts no single command owns,
// such as override documents or atlas naming.
package topics

import (
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/arthur-debert/texpack/pkg/errors"
)

// DefaultExtensions are the file extensions treated as topics
var DefaultExtensions = []string{".md", ".txt"}

// Topic is one help document
type Topic struct {
	Name    string
	Path    string
	Content string
}

// Format returns the topic's file extension, used to pick a renderer
func (t *Topic) Format() string {
	return path.Ext(t.Path)
}

// Options configures a Manager
type Options struct {
	// Extensions defaults to DefaultExtensions.
	Extensions []string
	// Renderer defaults to PlainRenderer.
	Renderer Renderer
}

// Manager holds the topics found in a filesystem
type Manager struct {
	topics     map[string]*Topic
	extensions []string
	renderer   Renderer
}

// Load scans fsys recursively for topic documents. A topic is named after
// its file name without the extension.
func Load(fsys fs.FS, opts Options) (*Manager, error) {
	m := &Manager{
		topics:     make(map[string]*Topic),
		extensions: opts.Extensions,
		renderer:   opts.Renderer,
	}
	if len(m.extensions) == 0 {
		m.extensions = DefaultExtensions
	}
	if m.renderer == nil {
		m.renderer = &PlainRenderer{}
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !m.supported(p) {
			return nil
		}
		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(path.Base(p), path.Ext(p))
		m.topics[name] = &Topic{Name: name, Path: p, Content: string(content)}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to scan help topics")
	}
	return m, nil
}

func (m *Manager) supported(p string) bool {
	ext := path.Ext(p)
	for _, e := range m.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Get returns a topic by name. Flag-style names ("--dry-run") also match
// topics named "option-dry-run".
func (m *Manager) Get(name string) (*Topic, bool) {
	name = strings.TrimLeft(name, "-")
	if t, ok := m.topics[name]; ok {
		return t, true
	}
	t, ok := m.topics["option-"+name]
	return t, ok
}

// Names returns the sorted topic names
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.topics))
	for name := range m.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render returns the named topic formatted by the manager's renderer
func (m *Manager) Render(name string) (string, error) {
	t, ok := m.Get(name)
	if !ok {
		return "", errors.Newf(errors.ErrNotFound, "no help topic %q", name).
			WithDetail("available", m.Names())
	}
	return m.renderer.Render(t.Content, t.Format()), nil
}
