package tiledata

import (
	"bytes"
	"testing"

	"github.com/cartograph/geoseg/internal/tiling"
)

func TestCoverCSV_RoundTrip(t *testing.T) {
	tiles := []tiling.Tile{
		tiling.NewMercatorTile(3, 7, 12, 256, 256),
		tiling.NewImagePixelTile("scene.tif", -10, 20, 512, 512, 256, 256),
	}

	var buf bytes.Buffer
	if err := WriteCoverCSV(&buf, tiles); err != nil {
		t.Fatalf("WriteCoverCSV: %v", err)
	}

	got, err := ReadCoverCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCoverCSV: %v", err)
	}
	if len(got) != len(tiles) {
		t.Fatalf("got %d tiles, want %d", len(got), len(tiles))
	}
	for i, want := range tiles {
		if !got[i].Equal(want) {
			t.Errorf("tile %d: got %+v, want %+v", i, got[i], want)
		}
	}
}

func TestCoverCSV_Format(t *testing.T) {
	var buf bytes.Buffer
	tiles := []tiling.Tile{tiling.NewMercatorTile(1, 2, 3, 0, 0)}
	if err := WriteCoverCSV(&buf, tiles); err != nil {
		t.Fatalf("WriteCoverCSV: %v", err)
	}
	want := "MercatorTile,1,2,3\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestReadCoverCSV_UnknownClass(t *testing.T) {
	_, err := ReadCoverCSV(bytes.NewBufferString("BogusTile,1,2,3\n"))
	if err == nil {
		t.Error("expected an error for an unrecognized tile class")
	}
}
