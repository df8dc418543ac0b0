package scan

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// EntryKind classifies a filesystem node produced by Walk.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindSymlink
	KindOther // sockets, FIFOs, devices
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// WalkEntry is one node under the scan root.
type WalkEntry struct {
	Path string
	Kind EntryKind
}

// SkipFunc reports whether a path should be left out of the walk.
// Returning true for a directory prunes its whole subtree.
type SkipFunc func(path string, isDir bool) bool

// Walk lazily yields every entry under root, depth first, root included.
// Entries that cannot be enumerated are skipped silently. Symlinks are reported,
// never followed.
func Walk(root string, skip SkipFunc) iter.Seq[WalkEntry] {
	return func(yield func(WalkEntry) bool) {
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Permission and vanish errors during enumeration are not scan errors
				return nil
			}

			kind := classify(d)
			if skip != nil && path != root && skip(path, kind == KindDirectory) {
				if kind == KindDirectory {
					return filepath.SkipDir
				}
				return nil
			}

			if !yield(WalkEntry{Path: path, Kind: kind}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func classify(d fs.DirEntry) EntryKind {
	mode := d.Type()
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case d.IsDir():
		return KindDirectory
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}
