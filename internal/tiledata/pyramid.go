package tiledata

import (
	"context"
	"fmt"
)

// PyramidSink receives encoded overview tiles as they are produced.
type PyramidSink interface {
	PutOverviewTile(ctx context.Context, zoom, x, y int, data []byte) error
}

// BuildOverviewPyramid derives zoom-1, zoom-2, ... overview tiles from a
// zoom-level map of base tiles by repeated 2x2 downsampling, mirroring the
// teacher's zoom-descending pyramid in its web-tile generator. Base tiles
// are keyed by tile column/row at baseZoom; each coarser level halves the
// tile grid until it collapses to a single root tile or minZoom is reached.
//
// encodeFn converts a *TileData into bytes for PyramidSink; it is injected
// so callers can reuse their existing PNG/WebP encoder (internal/encode)
// without this package depending on it directly.
func BuildOverviewPyramid(ctx context.Context, base map[[2]int]*TileData, baseZoom, minZoom, tileSize int, mode Resampling, verbose bool, sink PyramidSink, encodeFn func(*TileData) ([]byte, error)) error {
	current := base
	for z := baseZoom - 1; z >= minZoom; z-- {
		pb := newProgressBar(fmt.Sprintf("Overview %2d", z), int64(len(current)/4+1))
		next := make(map[[2]int]*TileData, len(current)/4+1)
		seen := make(map[[2]int]bool)
		for k := range current {
			px, py := k[0]/2, k[1]/2
			key := [2]int{px, py}
			if seen[key] {
				continue
			}
			seen[key] = true
			tl := current[[2]int{2 * px, 2 * py}]
			tr := current[[2]int{2*px + 1, 2 * py}]
			bl := current[[2]int{2 * px, 2*py + 1}]
			br := current[[2]int{2*px + 1, 2*py + 1}]
			td := downsampleTile(tl, tr, bl, br, tileSize, mode)
			if td == nil {
				continue
			}
			next[key] = td
			data, err := encodeFn(td)
			if err != nil {
				return fmt.Errorf("overview z=%d x=%d y=%d: encode: %w", z, px, py, err)
			}
			if err := sink.PutOverviewTile(ctx, z, px, py, data); err != nil {
				return fmt.Errorf("overview z=%d x=%d y=%d: write: %w", z, px, py, err)
			}
			pb.Increment()
		}
		pb.Finish()
		if verbose {
			fmt.Printf("overview zoom %d: %d tiles\n", z, len(next))
		}
		if len(next) == 0 {
			break
		}
		current = next
	}
	return nil
}
