// Package filesystem provides the filesystem abstraction texpack works through.
//
// Every component that touches disk (traversal, cleanup, override loading,
// the packing engine) goes through FS, so tests can run the whole pipeline
// against an in-memory tree. The OS implementation writes files atomically.
package filesystem
