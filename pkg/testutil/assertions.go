package testutil

import (
	"strings"
	"testing"

	"github.com/arthur-debert/texpack/pkg/filesystem"
	"github.com/stretchr/testify/assert"
)

// AssertFileExists checks that path exists in fsys
func AssertFileExists(t *testing.T, fsys filesystem.FS, path string, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.True(t, filesystem.Exists(fsys, path), append([]interface{}{"file does not exist: " + path}, msgAndArgs...)...)
}

// AssertNoFile checks that path does not exist in fsys
func AssertNoFile(t *testing.T, fsys filesystem.FS, path string, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.False(t, filesystem.Exists(fsys, path), append([]interface{}{"file should not exist: " + path}, msgAndArgs...)...)
}

// AssertFileContains checks that path exists and contains substr
func AssertFileContains(t *testing.T, fsys filesystem.FS, path, substr string) bool {
	t.Helper()
	data, err := fsys.ReadFile(path)
	if !assert.NoError(t, err, "reading %s", path) {
		return false
	}
	return assert.Contains(t, string(data), substr)
}

// CountOccurrences counts substr in the file at path
func CountOccurrences(t *testing.T, fsys filesystem.FS, path, substr string) int {
	t.Helper()
	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return strings.Count(string(data), substr)
}
