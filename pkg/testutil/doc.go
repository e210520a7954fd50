// Package testutil provides utilities for testing texpack components.
//
// Key components:
//   - TestEnvironment: an input and output root on a memory or temp dir
//     filesystem, cleaned up with the test
//   - FileTree: declarative directory setup, images included
//   - Image fixtures: solid and framed PNG/JPEG bytes
//   - Assertions on files inside an FS
//
// Usage guidelines:
//   - Most tests should use EnvMemoryOnly for speed and isolation
//   - Use EnvIsolated only where real disk behavior matters (atomic writes,
//     fsnotify)
//   - Define test data inline, not in external files
package testutil
