package fusion

import (
	"github.com/tidwall/rtree"

	"github.com/cartograph/geoseg/internal/tiling"
)

// AuxIndex is a spatial index over auxiliary tiles' source-pixel rectangles
// (spec.md §4.2 step 2), backed by github.com/tidwall/rtree — no Go R-tree
// implementation appears anywhere in the retrieved example pack, so this is
// named as an out-of-pack ecosystem dependency rather than grounded.
type AuxIndex struct {
	tr    rtree.RTree
	tiles []tiling.Tile
}

// NewAuxIndex builds a spatial index over the given auxiliary tiles.
func NewAuxIndex(auxTiles []tiling.Tile) *AuxIndex {
	idx := &AuxIndex{tiles: auxTiles}
	for i, t := range auxTiles {
		p := t.ImagePixel
		min := [2]float64{float64(p.SrcX), float64(p.SrcY)}
		max := [2]float64{float64(p.SrcX + int64(p.SrcW)), float64(p.SrcY + int64(p.SrcH))}
		idx.tr.Insert(min, max, i)
	}
	return idx
}

// Query returns every auxiliary tile whose source rectangle overlaps base's
// source rectangle.
func (idx *AuxIndex) Query(base tiling.Tile) []tiling.Tile {
	p := base.ImagePixel
	min := [2]float64{float64(p.SrcX), float64(p.SrcY)}
	max := [2]float64{float64(p.SrcX + int64(p.SrcW)), float64(p.SrcY + int64(p.SrcH))}

	var results []tiling.Tile
	idx.tr.Search(min, max, func(_, _ [2]float64, value interface{}) bool {
		i := value.(int)
		results = append(results, idx.tiles[i])
		return true
	})
	return results
}
