// Package settings defines the per-directory packing configuration.
//
// Settings is a plain value. Directories start from a clone of their
// nearest resolved ancestor (or the defaults) and may carry an override
// document, usually pack.json, whose fields are overlaid onto that clone:
//
//	{"padding": 0, "useDirNameAsInnerFolderName": true}
//
// Overlay never mutates its input, so an ancestor's snapshot cannot be
// changed through a descendant.
package settings
