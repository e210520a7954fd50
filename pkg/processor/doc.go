// Package processor drives a packing run over a source tree.
//
// A run has three steps:
//
//   - Cleanup: the previous pack file and its numbered pages are removed from
//     the output root, so a run that produces fewer pages than the last one
//     leaves nothing stale behind.
//   - Traversal: the walker yields one work unit per directory, parents
//     first.
//   - Packing: each unit's settings are resolved by inheritance from the
//     nearest resolved ancestor plus the directory's own override document,
//     an image base name is chosen, and the packing engine is invoked once.
//
// Runs are sequential. A failure aborts the run; directories packed before
// the failure stay on disk.
package processor
