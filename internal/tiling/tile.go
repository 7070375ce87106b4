package tiling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cartograph/geoseg/internal/geo"
)

// ErrTileAmbiguous is returned when a directory walk finds more than one file
// matching a single tile identity's relative path (differing only by extension).
var ErrTileAmbiguous = errors.New("tiling: ambiguous tile path: multiple extensions present")

// ErrTileUnparseable is returned when a path does not match either canonical layout.
var ErrTileUnparseable = errors.New("tiling: path does not match a known tile layout")

// Kind discriminates the Tile tagged union.
type Kind int

const (
	KindMercator Kind = iota
	KindImagePixel
)

// MercatorTile is an XYZ web-map tile; its bounds are a pure function of
// identity via the standard spherical-mercator formulas (geo.TileBounds).
type MercatorTile struct {
	X, Y, Z uint32
}

// ImagePixelTile is a rectangle in a source raster's pixel coordinate
// system. SrcX/SrcY may be negative when the tile hangs over the raster's
// top/left edge.
type ImagePixelTile struct {
	RasterName string
	SrcX, SrcY int64
	SrcW, SrcH uint64
}

// Tile is the immutable identity-plus-placement value spec.md §3 describes:
// a tagged union over MercatorTile/ImagePixelTile, carrying the disk-rendered
// size (which may differ from source size under resampling) and, once
// placed, an optional per-tile geo-transform/CRS.
//
// Two tiles are equal iff their identity tuples match — DiskW/DiskH,
// TileTransform and CRS are placement metadata, not identity.
type Tile struct {
	Kind       Kind
	Mercator   MercatorTile
	ImagePixel ImagePixelTile

	DiskW, DiskH uint32

	TileTransform *geo.Affine
	CRS           *geo.CRS
}

// Identity returns a comparable value capturing exactly the tile's identity
// tuple (kind + variant fields), ignoring placement metadata.
func (t Tile) Identity() any {
	switch t.Kind {
	case KindMercator:
		return t.Mercator
	case KindImagePixel:
		return t.ImagePixel
	default:
		return nil
	}
}

// Equal reports whether two tiles share the same identity.
func (t Tile) Equal(o Tile) bool {
	return t.Kind == o.Kind && t.Identity() == o.Identity()
}

// RelativePath returns the canonical on-disk path for the tile, relative to
// the tile-tree root, per spec.md §6. ext should include the leading dot
// (e.g. ".png").
func (t Tile) RelativePath(ext string) string {
	switch t.Kind {
	case KindMercator:
		m := t.Mercator
		return fmt.Sprintf("spherical_mercator_tiles/z_%d/x_%d/y_%d%s", m.Z, m.X, m.Y, ext)
	case KindImagePixel:
		p := t.ImagePixel
		return fmt.Sprintf("image_pixel_tiles/%s/width_height_%d_%d/width_offset_%d/height_offset_%d%s",
			p.RasterName, p.SrcW, p.SrcH, p.SrcX, p.SrcY, ext)
	default:
		return ""
	}
}

// NewMercatorTile builds a Tile wrapping a MercatorTile identity.
func NewMercatorTile(x, y, z uint32, diskW, diskH uint32) Tile {
	return Tile{Kind: KindMercator, Mercator: MercatorTile{X: x, Y: y, Z: z}, DiskW: diskW, DiskH: diskH}
}

// NewImagePixelTile builds a Tile wrapping an ImagePixelTile identity.
func NewImagePixelTile(rasterName string, srcX, srcY int64, srcW, srcH uint64, diskW, diskH uint32) Tile {
	return Tile{
		Kind:       KindImagePixel,
		ImagePixel: ImagePixelTile{RasterName: rasterName, SrcX: srcX, SrcY: srcY, SrcW: srcW, SrcH: srcH},
		DiskW:      diskW,
		DiskH:      diskH,
	}
}

// ParseTilePath reconstructs a Tile from a path relative to the tile-tree
// root, satisfying the round-trip invariant ParseTilePath(RelativePath(t)) == t
// (up to placement metadata, which paths never encode).
func ParseTilePath(relPath string) (Tile, error) {
	relPath = strings.TrimPrefix(filepathToSlash(relPath), "/")
	parts := strings.Split(relPath, "/")

	if len(parts) == 4 && parts[0] == "spherical_mercator_tiles" {
		z, err1 := parseUintPrefixed(parts[1], "z_")
		x, err2 := parseUintPrefixed(parts[2], "x_")
		yPart, ext := splitExt(parts[3])
		y, err3 := parseUintPrefixed(yPart, "y_")
		if err1 != nil || err2 != nil || err3 != nil {
			return Tile{}, fmt.Errorf("%w: %q", ErrTileUnparseable, relPath)
		}
		_ = ext
		return NewMercatorTile(uint32(x), uint32(y), uint32(z), 0, 0), nil
	}

	if len(parts) == 5 && parts[0] == "image_pixel_tiles" {
		rasterName := parts[1]
		w, h, err1 := parseWidthHeight(parts[2])
		ox, err2 := parseIntPrefixed(parts[3], "width_offset_")
		oyPart, ext := splitExt(parts[4])
		oy, err3 := parseIntPrefixed(oyPart, "height_offset_")
		if err1 != nil || err2 != nil || err3 != nil {
			return Tile{}, fmt.Errorf("%w: %q", ErrTileUnparseable, relPath)
		}
		_ = ext
		return NewImagePixelTile(rasterName, ox, oy, w, h, 0, 0), nil
	}

	return Tile{}, fmt.Errorf("%w: %q", ErrTileUnparseable, relPath)
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func splitExt(s string) (base, ext string) {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func parseUintPrefixed(s, prefix string) (uint64, error) {
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("missing prefix %q in %q", prefix, s)
	}
	return strconv.ParseUint(strings.TrimPrefix(s, prefix), 10, 64)
}

func parseIntPrefixed(s, prefix string) (int64, error) {
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("missing prefix %q in %q", prefix, s)
	}
	return strconv.ParseInt(strings.TrimPrefix(s, prefix), 10, 64)
}

func parseWidthHeight(s string) (w, h uint64, err error) {
	const prefix = "width_height_"
	if !strings.HasPrefix(s, prefix) {
		return 0, 0, fmt.Errorf("missing prefix %q in %q", prefix, s)
	}
	rest := strings.TrimPrefix(s, prefix)
	fields := strings.SplitN(rest, "_", 2)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed width_height segment %q", s)
	}
	w, err = strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	h, err = strconv.ParseUint(fields[1], 10, 64)
	return w, h, err
}
