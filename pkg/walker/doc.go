// Package walker enumerates a source tree into per-directory work units.
//
// A directory is registered as soon as any of its entries is listed, before
// its subdirectories are descended into, so units always come out with
// parents ahead of their children. Settings inheritance depends on that
// order.
package walker
