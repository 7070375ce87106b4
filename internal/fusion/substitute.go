package fusion

import (
	"math"

	"github.com/cartograph/geoseg/internal/raster"
	"github.com/cartograph/geoseg/internal/tiling"
)

// ReliableCenterRadius returns the half-width/half-height, in disk pixels,
// of a tile's reliable center rectangle at the given float stride (spec.md
// §4.2 "Reliable-center definition"). Ceiling is used so that reliable
// rectangles tiled at this stride cover the plane without gaps.
func ReliableCenterRadius(strideX, strideY float64, diskW, diskH, srcW, srcH int) (rx, ry int) {
	dxStride := strideX * float64(diskW) / float64(srcW)
	dyStride := strideY * float64(diskH) / float64(srcH)
	rx = int(math.Ceil(dxStride / 2))
	ry = int(math.Ceil(dyStride / 2))
	return
}

// Substitute copies aux's reliable-center rectangle into base at the
// offset-shifted location (spec.md §4.2 steps 3-4). The offset is computed
// from the *source*-coordinate difference of the two tiles' centers, scaled
// by base's disk-to-source ratio — never by re-multiplying the stride,
// which would accumulate quantization error across many substitutions.
func Substitute(base *raster.Pixels, baseTile tiling.Tile, aux *raster.Pixels, auxTile tiling.Tile, strideX, strideY float64) {
	if baseTile.Kind != tiling.KindImagePixel || auxTile.Kind != tiling.KindImagePixel {
		return
	}
	bp := baseTile.ImagePixel
	ap := auxTile.ImagePixel
	if bp.SrcW == 0 || bp.SrcH == 0 {
		return
	}

	baseCenterSrcX := float64(bp.SrcX) + float64(bp.SrcW)/2
	baseCenterSrcY := float64(bp.SrcY) + float64(bp.SrcH)/2
	auxCenterSrcX := float64(ap.SrcX) + float64(ap.SrcW)/2
	auxCenterSrcY := float64(ap.SrcY) + float64(ap.SrcH)/2

	diskToSrcX := float64(baseTile.DiskW) / float64(bp.SrcW)
	diskToSrcY := float64(baseTile.DiskH) / float64(bp.SrcH)

	offsetX := (auxCenterSrcX - baseCenterSrcX) * diskToSrcX
	offsetY := (auxCenterSrcY - baseCenterSrcY) * diskToSrcY

	baseCenterDiskX := float64(baseTile.DiskW) / 2
	baseCenterDiskY := float64(baseTile.DiskH) / 2
	auxCenterInBaseX := baseCenterDiskX + offsetX
	auxCenterInBaseY := baseCenterDiskY + offsetY

	rx, ry := ReliableCenterRadius(strideX, strideY, int(auxTile.DiskW), int(auxTile.DiskH), int(ap.SrcW), int(ap.SrcH))

	auxCenterDiskX := float64(auxTile.DiskW) / 2
	auxCenterDiskY := float64(auxTile.DiskH) / 2

	// Reliable rectangle in aux's own disk-pixel coordinates.
	srcMinX := int(math.Floor(auxCenterDiskX)) - rx
	srcMinY := int(math.Floor(auxCenterDiskY)) - ry
	srcMaxX := int(math.Floor(auxCenterDiskX)) + rx
	srcMaxY := int(math.Floor(auxCenterDiskY)) + ry

	// Same rectangle translated into base's disk-pixel coordinates.
	destMinX := int(math.Floor(auxCenterInBaseX)) - rx
	destMinY := int(math.Floor(auxCenterInBaseY)) - ry

	width, height := base.Width, base.Height

	for dy := srcMinY; dy < srcMaxY; dy++ {
		destY := destMinY + (dy - srcMinY)
		if destY < 0 || destY >= height {
			continue
		}
		for dx := srcMinX; dx < srcMaxX; dx++ {
			destX := destMinX + (dx - srcMinX)
			if destX < 0 || destX >= width {
				continue // asymmetric clipping at raster edges: skip, don't wrap
			}
			for band := 0; band < base.Bands; band++ {
				base.Set(destX, destY, band, aux.At(dx, dy, band))
			}
		}
	}
}
