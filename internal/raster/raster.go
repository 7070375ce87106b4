// Package raster defines the narrow interface the rest of the engine uses to
// read georeferenced pixel data. spec.md treats file-format specifics
// (GeoTIFF/PNG decoding) as an external collaborator; this package is the
// seam. internal/rastertiff provides the concrete GeoTIFF/COG implementation.
package raster

import (
	"context"
	"errors"
	"fmt"

	"github.com/cartograph/geoseg/internal/geo"
)

// DType is the pixel sample type of a raster band.
type DType int

const (
	DTypeUint8 DType = iota
	DTypeUint16
	DTypeInt16
	DTypeFloat32
)

// ErrOutOfBounds is not surfaced by window reads: Raster.ReadWindow recovers
// out-of-bounds edges locally by zero-filling,
// per spec.md §7's propagation policy ("for raster-read on edges outside
// image bounds, the engine treats this as zero-filled data"). Reproject
// returns it when the source transform cannot be inverted. It is exported
// so adapters and tests can assert the sentinel with errors.Is.
var ErrOutOfBounds = errors.New("raster: read window outside raster bounds")

// ErrInvalidGeoReference is returned when a raster has neither a valid
// transform+CRS nor valid GCPs (spec.md §3 geo-validity invariant, §7).
var ErrInvalidGeoReference = errors.New("raster: invalid geo-reference: need either transform+crs or gcps")

// Pixels is a decoded pixel window: row-major, band-interleaved samples.
type Pixels struct {
	Width, Height int
	Bands         int
	DType         DType
	// Data holds Width*Height*Bands samples as float64 regardless of the
	// underlying DType, so callers (resampling, masking, aggregation) never
	// need a type switch. Adapters convert on read.
	Data []float64
}

// At returns the sample at (x, y, band), or 0 if out of range.
func (p *Pixels) At(x, y, band int) float64 {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height || band < 0 || band >= p.Bands {
		return 0
	}
	return p.Data[(y*p.Width+x)*p.Bands+band]
}

// Set assigns the sample at (x, y, band). No-op if out of range.
func (p *Pixels) Set(x, y, band int, v float64) {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height || band < 0 || band >= p.Bands {
		return
	}
	p.Data[(y*p.Width+x)*p.Bands+band] = v
}

// NewPixels allocates a zero-filled pixel window.
func NewPixels(width, height, bands int, dtype DType) *Pixels {
	return &Pixels{Width: width, Height: height, Bands: bands, DType: dtype, Data: make([]float64, width*height*bands)}
}

// Raster is the narrow interface the engine depends on. spec.md's Raster
// entity: width/height/bands/dtype/transform/crs/gcps/overview_pyramid
// (overview pyramid access is not exposed: ReadWindow reads full-resolution
// pixels, and no SPEC_FULL.md component queries overview levels).
type Raster interface {
	Width() int
	Height() int
	Bands() int
	DType() DType

	// Transform returns the pixel→world affine and whether it is valid.
	Transform() (geo.Affine, bool)
	// CRS returns the raster's coordinate reference system and whether it is valid.
	CRS() (geo.CRS, bool)
	// GCPs returns ground-control points, non-empty only when Transform/CRS are invalid.
	GCPs() []geo.GCP
	// GSD returns the ground sampling distance per pixel, and whether it
	// could be determined. The GeoTIFF adapter reads no GSD tag: it returns
	// the mean of Transform's per-axis resolution, in CRS units (meters/pixel
	// for a projected metric CRS), whatever the CRS.
	GSD() (float64, bool)

	// ReadWindow reads a width x height window of pixels whose upper-left
	// corner is at source pixel (x, y). Portions outside [0,Width())x[0,Height())
	// are zero-filled rather than erroring, per spec.md §7.
	ReadWindow(ctx context.Context, x, y, width, height int) (*Pixels, error)

	Close() error
}

// Validate checks the geo-validity invariant from spec.md §3: at least one of
// (transform, crs) or gcps must be valid. Transform+CRS takes precedence by
// convention when both are present.
func Validate(r Raster) error {
	_, okT := r.Transform()
	_, okC := r.CRS()
	hasGCPs := len(r.GCPs()) >= 3
	if (okT && okC) || hasGCPs {
		return nil
	}
	return fmt.Errorf("%w: raster has transform=%v crs=%v gcps=%d", ErrInvalidGeoReference, okT, okC, len(r.GCPs()))
}
