package rastertiff

import (
	"context"
	"image/color"
	"path/filepath"

	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
)

// Affine converts the axis-aligned GeoInfo (as parsed from ModelPixelScale /
// ModelTiepoint GeoTIFF tags, or a TFW sidecar) into a full 6-parameter
// affine. GeoTIFF's world file convention has no rotation/shear term, so B
// and D are always zero here; a future adapter for rotated inputs would
// populate them directly instead of going through GeoInfo.
func (g GeoInfo) Affine() geo.Affine {
	return geo.FromOriginAndScale(g.OriginX, g.OriginY, g.PixelSizeX, g.PixelSizeY)
}

// Valid reports whether the parsed geo-reference is usable.
func (g GeoInfo) Valid() bool {
	return g.PixelSizeX != 0 && g.PixelSizeY != 0
}

// RasterAdapter wraps a *Reader (the teacher's hand-rolled COG/GeoTIFF
// decoder, adapted from internal/cog) to satisfy raster.Raster.
type RasterAdapter struct {
	reader *Reader
	name   string
}

// NewRasterAdapter opens path and wraps it. name is the logical raster name
// used in ImagePixelTile identities and tile-tree paths (spec.md §6); it
// defaults to the base file name when empty.
func NewRasterAdapter(path, name string) (*RasterAdapter, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return &RasterAdapter{reader: r, name: name}, nil
}

func (a *RasterAdapter) Name() string { return a.name }
func (a *RasterAdapter) Width() int   { return a.reader.Width() }
func (a *RasterAdapter) Height() int  { return a.reader.Height() }
func (a *RasterAdapter) Bands() int { return 4 } // ReadWindow always decodes through the RGBA path
func (a *RasterAdapter) DType() raster.DType { return raster.DTypeUint8 }

func (a *RasterAdapter) Transform() (geo.Affine, bool) {
	gi := a.reader.GeoInfo()
	if !gi.Valid() {
		return geo.Affine{}, false
	}
	return gi.Affine(), true
}

func (a *RasterAdapter) CRS() (geo.CRS, bool) {
	gi := a.reader.GeoInfo()
	if gi.EPSG == 0 {
		return geo.CRS{}, false
	}
	return geo.NewCRS(gi.EPSG), true
}

// GCPs is always empty: the teacher's reader only supports tiepoint+scale or
// TFW georeferencing, never a GCP list. A raster lacking both falls through
// to raster.ErrInvalidGeoReference.
func (a *RasterAdapter) GCPs() []geo.GCP { return nil }

func (a *RasterAdapter) GSD() (float64, bool) {
	t, ok := a.Transform()
	if !ok {
		return 0, false
	}
	gx, gy := t.Resolution()
	return (gx + gy) / 2, true
}

// ReadWindow reads a window of source pixels, zero-filling any portion that
// falls outside the raster, per spec.md §7 (recovered locally, never an
// error). Bands are packed as R,G,B,A in [0,255] promoted to float64.
func (a *RasterAdapter) ReadWindow(ctx context.Context, x, y, width, height int) (*raster.Pixels, error) {
	out := raster.NewPixels(width, height, 4, raster.DTypeUint8)

	rw, rh := a.Width(), a.Height()
	readX0 := max0(x)
	readY0 := max0(y)
	readX1 := minInt(x+width, rw)
	readY1 := minInt(y+height, rh)
	if readX0 >= readX1 || readY0 >= readY1 {
		return out, nil // entirely outside the raster: all-zero window
	}

	region, err := a.reader.ReadRegion(0, readX0, readY0, readX1-readX0, readY1-readY0)
	if err != nil {
		return nil, err
	}

	for ry := readY0; ry < readY1; ry++ {
		for rx := readX0; rx < readX1; rx++ {
			c := region.RGBAAt(rx-readX0, ry-readY0)
			dstX, dstY := rx-x, ry-y
			setRGBA(out, dstX, dstY, c)
		}
	}
	return out, nil
}

func setRGBA(p *raster.Pixels, x, y int, c color.RGBA) {
	p.Set(x, y, 0, float64(c.R))
	p.Set(x, y, 1, float64(c.G))
	p.Set(x, y, 2, float64(c.B))
	p.Set(x, y, 3, float64(c.A))
}

func (a *RasterAdapter) Close() error { return a.reader.Close() }

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
