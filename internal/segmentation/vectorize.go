package segmentation

import (
	"image/color"

	"github.com/paulmach/orb"

	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
)

// Vectorize traces the boundary of mask's nonzero region (band 0, any
// nonzero sample counts as foreground) into polygon rings, projecting
// through transform into the raster's world CRS. Adapted from
// eot/geojson_ext/geojson_raster_conversion.py's contour tracer: unlike a
// true marching-squares isoline (which interpolates sub-pixel crossings),
// this traces along pixel-cell boundaries directly, which is what a binary
// category mask calls for — the source data has no sub-pixel gradient to
// interpolate.
func Vectorize(mask *raster.Pixels, transform geo.Affine, crs geo.CRS, category string, maskColor color.RGBA) (GeoSegmentation, error) {
	rings := traceBoundaries(mask)

	polys := make([]orb.Polygon, 0, len(rings))
	for _, ring := range rings {
		projected := make(orb.Ring, len(ring))
		for i, pt := range ring {
			x, y := transform.Apply(float64(pt[0]), float64(pt[1]))
			projected[i] = orb.Point{x, y}
		}
		polys = append(polys, orb.Polygon{projected})
	}

	return GeoSegmentation{
		Polygons:  polys,
		CRS:       crs,
		MaskColor: maskColor,
		Category:  category,
	}, nil
}

type gridEdge struct{ x0, y0, x1, y1 int }

// traceBoundaries walks mask's foreground/background cell grid and, for
// every foreground cell, emits the unit edges bordering a background (or
// out-of-bounds) neighbor, oriented so foreground stays on the right-hand
// side of travel. Edges are then stitched end-to-end into closed rings.
func traceBoundaries(mask *raster.Pixels) [][][2]int {
	w, h := mask.Width, mask.Height
	fg := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return mask.At(x, y, 0) != 0
	}

	var edges []gridEdge
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !fg(x, y) {
				continue
			}
			if !fg(x, y-1) {
				edges = append(edges, gridEdge{x, y, x + 1, y})
			}
			if !fg(x+1, y) {
				edges = append(edges, gridEdge{x + 1, y, x + 1, y + 1})
			}
			if !fg(x, y+1) {
				edges = append(edges, gridEdge{x + 1, y + 1, x, y + 1})
			}
			if !fg(x-1, y) {
				edges = append(edges, gridEdge{x, y + 1, x, y})
			}
		}
	}

	adjacency := make(map[[2]int][]int)
	for i, e := range edges {
		start := [2]int{e.x0, e.y0}
		adjacency[start] = append(adjacency[start], i)
	}

	used := make([]bool, len(edges))
	var rings [][][2]int
	for i := range edges {
		if used[i] {
			continue
		}
		ringStart := [2]int{edges[i].x0, edges[i].y0}
		var ring [][2]int
		cur := i
		for {
			used[cur] = true
			e := edges[cur]
			ring = append(ring, [2]int{e.x0, e.y0})
			end := [2]int{e.x1, e.y1}
			next := -1
			for _, cand := range adjacency[end] {
				if !used[cand] {
					next = cand
					break
				}
			}
			if end == ringStart {
				ring = append(ring, end)
				break
			}
			if next == -1 {
				break
			}
			cur = next
		}
		if len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return rings
}
