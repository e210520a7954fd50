// Package packer lays out the images of one directory on atlas pages.
//
// It is a small shelf packer: images are sorted by height and placed left to
// right on shelves, a new page is opened when a shelf no longer fits. Each
// Pack call writes its pages next to any existing ones (taking the first free
// page name) and appends their regions to the pack's descriptor, in libGDX
// text format or as XML.
package packer
