package processor

import (
	"path/filepath"

	"github.com/arthur-debert/texpack/pkg/settings"
)

const noParent = -1

type node struct {
	path     string
	parent   int
	resolved bool
	settings settings.Settings
}

// tree holds the resolved settings of every directory visited in one run.
// Nodes live in an arena and point at their parent by index. A resolved
// node is never resolved again.
type tree struct {
	root  string
	nodes []node
	index map[string]int
}

func newTree(root string) *tree {
	return &tree{
		root:  filepath.Clean(root),
		index: make(map[string]int),
	}
}

// nodeFor returns the index of dir's node, creating it and any missing
// ancestors up to the root.
func (t *tree) nodeFor(dir string) int {
	dir = filepath.Clean(dir)
	if idx, ok := t.index[dir]; ok {
		return idx
	}

	parent := noParent
	if up := filepath.Dir(dir); dir != t.root && up != dir {
		parent = t.nodeFor(up)
	}

	t.nodes = append(t.nodes, node{path: dir, parent: parent})
	idx := len(t.nodes) - 1
	t.index[dir] = idx
	return idx
}

// lookup returns dir's settings if it has been resolved
func (t *tree) lookup(dir string) (settings.Settings, bool) {
	idx, ok := t.index[filepath.Clean(dir)]
	if !ok || !t.nodes[idx].resolved {
		return settings.Settings{}, false
	}
	return t.nodes[idx].settings, true
}

// base finds the settings dir starts from: a clone of the nearest resolved
// ancestor, or of defaults when the root is passed without finding one.
// The walk also covers the root itself, so an unresolved parent falls back
// to whatever is resolved further up.
func (t *tree) base(idx int, defaults settings.Settings) (settings.Settings, string) {
	n := t.nodes[idx]
	if n.path == t.root {
		return settings.Clone(defaults), ""
	}

	for up := n.parent; up != noParent; up = t.nodes[up].parent {
		if t.nodes[up].resolved {
			return settings.Clone(t.nodes[up].settings), t.nodes[up].path
		}
		if t.nodes[up].path == t.root {
			break
		}
	}
	return settings.Clone(defaults), ""
}

func (t *tree) store(idx int, s settings.Settings) {
	t.nodes[idx].settings = s
	t.nodes[idx].resolved = true
}
