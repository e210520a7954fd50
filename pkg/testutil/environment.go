package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/arthur-debert/texpack/pkg/filesystem"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// TestEnvironment holds an input tree and an output root on one filesystem
type TestEnvironment struct {
	InputRoot  string
	OutputRoot string
	FS         filesystem.FS
	Type       EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType}
	switch envType {
	case EnvIsolated:
		base := t.TempDir()
		env.InputRoot = filepath.Join(base, "assets")
		env.OutputRoot = filepath.Join(base, "out")
		env.FS = filesystem.NewOS()
	default:
		env.InputRoot = "/assets"
		env.OutputRoot = "/out"
		env.FS = filesystem.NewMemory()
	}

	if err := env.FS.MkdirAll(env.InputRoot, 0755); err != nil {
		t.Fatalf("Failed to create input root: %v", err)
	}
	return env
}

// Input joins parts under the input root
func (env *TestEnvironment) Input(parts ...string) string {
	return filepath.Join(append([]string{env.InputRoot}, parts...)...)
}

// Output joins parts under the output root
func (env *TestEnvironment) Output(parts ...string) string {
	return filepath.Join(append([]string{env.OutputRoot}, parts...)...)
}

// WithFileTree creates tree under the input root
func (env *TestEnvironment) WithFileTree(tree FileTree) {
	env.t.Helper()
	CreateFileTree(env.t, env.FS, env.InputRoot, tree)
}

// WithOutputFiles seeds the output root, typically with files a previous
// run left behind
func (env *TestEnvironment) WithOutputFiles(tree FileTree) {
	env.t.Helper()
	CreateFileTree(env.t, env.FS, env.OutputRoot, tree)
}

// ListOutput returns the sorted names of the files directly in the output
// root
func (env *TestEnvironment) ListOutput() []string {
	env.t.Helper()
	return ListFiles(env.t, env.FS, env.OutputRoot)
}

// ReadFile returns the content of path, failing the test when unreadable
func (env *TestEnvironment) ReadFile(path string) string {
	env.t.Helper()
	data, err := env.FS.ReadFile(path)
	if err != nil {
		env.t.Fatalf("Failed to read %s: %v", path, err)
	}
	return string(data)
}

// FileTree represents a directory structure for testing. Values are file
// contents (string or []byte) or nested FileTrees.
type FileTree map[string]interface{}

// CreateFileTree recursively creates tree under basePath
func CreateFileTree(t *testing.T, fsys filesystem.FS, basePath string, tree FileTree) {
	t.Helper()

	if err := fsys.MkdirAll(basePath, 0755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", basePath, err)
	}
	for name, content := range tree {
		fullPath := filepath.Join(basePath, name)
		if dir := filepath.Dir(fullPath); dir != basePath {
			if err := fsys.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("Failed to create directory %s: %v", dir, err)
			}
		}

		switch v := content.(type) {
		case string:
			writeFile(t, fsys, fullPath, []byte(v))
		case []byte:
			writeFile(t, fsys, fullPath, v)
		case FileTree:
			CreateFileTree(t, fsys, fullPath, v)
		default:
			t.Fatalf("Invalid file tree content type for %s: %T", name, content)
		}
	}
}

func writeFile(t *testing.T, fsys filesystem.FS, path string, data []byte) {
	t.Helper()
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// ListFiles returns the sorted names of the regular files directly in dir.
// A missing dir lists as empty.
func ListFiles(t *testing.T, fsys filesystem.FS, dir string) []string {
	t.Helper()
	if !filesystem.Exists(fsys, dir) {
		return []string{}
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list %s: %v", dir, err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
