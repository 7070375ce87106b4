package tiling

import (
	"github.com/cartograph/geoseg/internal/geo"
)

// AutoZoomRange computes appropriate min/max zoom levels based on source data.
// pixelSizeMeters is the source ground resolution in meters.
func AutoZoomRange(pixelSizeMeters float64, centerLat float64) (minZoom, maxZoom int) {
	maxZoom = geo.MaxZoomForResolution(pixelSizeMeters, centerLat)
	minZoom = maxZoom - 6
	if minZoom < 0 {
		minZoom = 0
	}
	return
}
