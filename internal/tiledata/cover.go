package tiledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cartograph/geoseg/internal/tiling"
)

// Tile class names as they appear in the cover CSV's first field, matching
// tiling's Tile tagged-union variant names.
const (
	coverMercatorTile   = "MercatorTile"
	coverImagePixelTile = "ImagePixelTile"
)

// WriteCoverCSV writes one line per tile, per spec.md §6: the tile's class
// name followed by its identity fields — x,y,z for a MercatorTile, or
// raster_name,src_x,src_y,src_w,src_h for an ImagePixelTile. Supplements the
// original's eot/tools/cover.py, which this format's field order follows.
func WriteCoverCSV(w io.Writer, tiles []tiling.Tile) error {
	cw := csv.NewWriter(w)
	for _, t := range tiles {
		var record []string
		switch t.Kind {
		case tiling.KindMercator:
			m := t.Mercator
			record = []string{
				coverMercatorTile,
				strconv.FormatUint(uint64(m.X), 10),
				strconv.FormatUint(uint64(m.Y), 10),
				strconv.FormatUint(uint64(m.Z), 10),
			}
		case tiling.KindImagePixel:
			p := t.ImagePixel
			record = []string{
				coverImagePixelTile,
				p.RasterName,
				strconv.FormatInt(p.SrcX, 10),
				strconv.FormatInt(p.SrcY, 10),
				strconv.FormatUint(p.SrcW, 10),
				strconv.FormatUint(p.SrcH, 10),
			}
		default:
			continue
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCoverCSV parses a cover CSV written by WriteCoverCSV back into tiles.
// Disk dimensions are not recorded in the cover format (it is an identity
// manifest, not a placement one), so returned tiles carry DiskW/DiskH == 0.
func ReadCoverCSV(r io.Reader) ([]tiling.Tile, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var tiles []tiling.Tile
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		t, err := parseCoverRecord(record)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}
	return tiles, nil
}

func parseCoverRecord(record []string) (tiling.Tile, error) {
	switch record[0] {
	case coverMercatorTile:
		if len(record) != 4 {
			return tiling.Tile{}, fmt.Errorf("tiledata: malformed %s cover record: %v", coverMercatorTile, record)
		}
		x, err1 := strconv.ParseUint(record[1], 10, 32)
		y, err2 := strconv.ParseUint(record[2], 10, 32)
		z, err3 := strconv.ParseUint(record[3], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil {
			return tiling.Tile{}, fmt.Errorf("tiledata: malformed %s cover record: %v", coverMercatorTile, record)
		}
		return tiling.NewMercatorTile(uint32(x), uint32(y), uint32(z), 0, 0), nil
	case coverImagePixelTile:
		if len(record) != 6 {
			return tiling.Tile{}, fmt.Errorf("tiledata: malformed %s cover record: %v", coverImagePixelTile, record)
		}
		srcX, err1 := strconv.ParseInt(record[2], 10, 64)
		srcY, err2 := strconv.ParseInt(record[3], 10, 64)
		srcW, err3 := strconv.ParseUint(record[4], 10, 64)
		srcH, err4 := strconv.ParseUint(record[5], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return tiling.Tile{}, fmt.Errorf("tiledata: malformed %s cover record: %v", coverImagePixelTile, record)
		}
		return tiling.NewImagePixelTile(record[1], srcX, srcY, srcW, srcH, 0, 0), nil
	default:
		return tiling.Tile{}, fmt.Errorf("tiledata: unknown tile class %q", record[0])
	}
}
