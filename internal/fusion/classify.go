// Package fusion implements the Prediction Fusion Engine (spec.md §4.2):
// classifying tiles into a base (non-overlapping reference) set and an
// auxiliary (strided, overlapping) set, then substituting each auxiliary
// tile's reliable center into its overlapping base tiles.
package fusion

import (
	"errors"
	"math"

	"github.com/cartograph/geoseg/internal/tiling"
)

// ErrNoBaseTiles is returned when no tile in the input set classifies as
// base (misconfigured tiling origin).
var ErrNoBaseTiles = errors.New("fusion: no base tiles identified")

// ErrOptimizedAlignmentUnsupported is returned when fusion-consistency is
// requested against a tiling run flagged
// TilingInfo.OptimizedBaseAlignmentUnsound.
var ErrOptimizedAlignmentUnsupported = errors.New("fusion: optimized alignment combined with aligned_to_base is not supported for consistent fusion")

// ErrOverhangRequired is returned when fusion-consistency is requested but
// the tiling scheme did not use overhang.
var ErrOverhangRequired = errors.New("fusion: consistent fusion requires use_overhang=true in the source tiling scheme")

// ErrStrideQuantization is returned when a tile's offset deviates from the
// nearest base-stride multiple by more than ClassifyOptions.Tolerance but
// less than ClassifyOptions.BugThreshold.
var ErrStrideQuantization = errors.New("fusion: stride quantization check failed")

// Classification distinguishes base tiles from auxiliary tiles.
type Classification int

const (
	ClassBase Classification = iota
	ClassAuxiliary
)

// ClassifyOptions parameterizes the base/auxiliary tolerance (spec.md §9
// Open Question): a deviation within Tolerance pixels from the nearest
// base-stride multiple is base; a deviation strictly between Tolerance and
// BugThreshold is treated as a tiling bug and reported via
// ErrStrideQuantization; beyond BugThreshold, the tile is simply auxiliary.
type ClassifyOptions struct {
	Tolerance   float64
	BugThreshold float64
}

// DefaultClassifyOptions mirrors the source's hardcoded 1 / 16 thresholds.
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{Tolerance: 1, BugThreshold: 16}
}

// offsetRemainder returns how far offset deviates from the nearest integer
// multiple of baseStride, relative to origin.
func offsetRemainder(offset, origin int, baseStride float64) float64 {
	if baseStride == 0 {
		return 0
	}
	delta := float64(offset - origin)
	k := math.Round(delta / baseStride)
	return delta - k*baseStride
}

// Classify partitions tile against the raster's tiling info into base or
// auxiliary (spec.md §4.2 step 1): a tile is base iff its offset relative to
// the tiling origin is an integer multiple of base_stride along both axes
// (within opts.Tolerance) and it lies fully inside the raster.
func Classify(tile tiling.Tile, info tiling.TilingInfo, rasterW, rasterH int, opts ClassifyOptions) (Classification, error) {
	if tile.Kind != tiling.KindImagePixel {
		return ClassAuxiliary, nil
	}
	p := tile.ImagePixel

	remX := offsetRemainder(int(p.SrcX), info.TilingSourceOffsetX, info.BaseStrideX)
	remY := offsetRemainder(int(p.SrcY), info.TilingSourceOffsetY, info.BaseStrideY)

	if bug := checkBug(remX, opts); bug {
		return ClassAuxiliary, errStrideQuantization(remX)
	}
	if bug := checkBug(remY, opts); bug {
		return ClassAuxiliary, errStrideQuantization(remY)
	}

	insideRaster := p.SrcX >= 0 && p.SrcY >= 0 &&
		p.SrcX+int64(p.SrcW) <= int64(rasterW) && p.SrcY+int64(p.SrcH) <= int64(rasterH)

	if math.Abs(remX) <= opts.Tolerance && math.Abs(remY) <= opts.Tolerance && insideRaster {
		return ClassBase, nil
	}
	return ClassAuxiliary, nil
}

func checkBug(remainder float64, opts ClassifyOptions) bool {
	abs := math.Abs(remainder)
	return abs > opts.Tolerance && abs < opts.BugThreshold
}

func errStrideQuantization(remainder float64) error {
	return &strideQuantizationError{remainder: remainder}
}

type strideQuantizationError struct {
	remainder float64
}

func (e *strideQuantizationError) Error() string {
	return ErrStrideQuantization.Error()
}

func (e *strideQuantizationError) Unwrap() error {
	return ErrStrideQuantization
}

// CheckConsistency validates that a tiling run supports fusion-consistency
// (spec.md §4.2 "Contract"): aligned_to_base and use_overhang must both
// hold, and the run must not be flagged OptimizedBaseAlignmentUnsound.
func CheckConsistency(info tiling.TilingInfo, alignedToBase, useOverhang bool) error {
	if info.OptimizedBaseAlignmentUnsound {
		return ErrOptimizedAlignmentUnsupported
	}
	if !useOverhang {
		return ErrOverhangRequired
	}
	if !alignedToBase {
		return ErrOptimizedAlignmentUnsupported
	}
	return nil
}
