package tiling

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirWalker lazily enumerates tiles under a tile-tree root, supplementing
// the source's generator-based read_tiles_from_dir: NewDirWalker lists
// every tile file path up front, and Next() turns one path at a time into
// a tile.
type DirWalker struct {
	files []string // remaining file paths, relative to root
	pos   int
	root  string
}

// NewDirWalker collects the sorted list of tile file paths under root (both
// spherical_mercator_tiles/ and image_pixel_tiles/ subtrees) and returns a
// walker over them. The listing itself is eager (a single Stat-free
// filepath.WalkDir pass); only tile-path parsing is deferred to Next().
func NewDirWalker(root string) (*DirWalker, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = strings.ReplaceAll(rel, string(filepath.Separator), "/")
		if strings.HasSuffix(rel, ".json") || strings.HasSuffix(rel, ".txt") ||
			strings.HasSuffix(rel, ".csv") || strings.HasSuffix(rel, ".aux.xml") ||
			strings.HasSuffix(rel, ".geojson") {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tiling: walk %s: %w", root, err)
	}
	sort.Strings(files)
	return &DirWalker{files: files, root: root}, nil
}

// Next returns the next tile, or ok=false once the walk is exhausted.
// Consumers are expected to consume it once, in order (spec.md §9 design
// note on iterator-returning directory scans).
func (w *DirWalker) Next() (tile Tile, ok bool, err error) {
	for w.pos < len(w.files) {
		path := w.files[w.pos]
		w.pos++
		base, _ := splitExt(path)
		t, perr := ParseTilePath(base + inferExt(path))
		if perr != nil {
			continue // not a tile file (e.g. stray non-tile artifact); skip
		}
		return t, true, nil
	}
	return Tile{}, false, nil
}

// LastPath returns the path of the tile last returned by Next(), needed by callers
// that must re-open the underlying file (Next() itself does not expose it).
func (w *DirWalker) LastPath() string {
	if w.pos == 0 {
		return ""
	}
	return w.files[w.pos-1]
}

func inferExt(path string) string {
	_, ext := splitExt(path)
	return ext
}

// CheckAmbiguous scans root for tile identities that resolve to more than
// one file differing only by extension, returning ErrTileAmbiguous wrapping
// the first offending relative directory found.
func CheckAmbiguous(root string) error {
	seen := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = strings.ReplaceAll(rel, string(filepath.Separator), "/")
		base, ext := splitExt(rel)
		if prevExt, ok := seen[base]; ok && prevExt != ext {
			return fmt.Errorf("%w: %s has both %s and %s", ErrTileAmbiguous, base, prevExt, ext)
		}
		seen[base] = ext
		return nil
	})
	return err
}
