package tiling

import "testing"

func TestMercatorTile_PathRoundTrip(t *testing.T) {
	tile := NewMercatorTile(12, 34, 19, 256, 256)
	path := tile.RelativePath(".png")

	got, err := ParseTilePath(path)
	if err != nil {
		t.Fatalf("ParseTilePath(%q): %v", path, err)
	}
	if !got.Equal(tile) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got.Mercator, tile.Mercator)
	}
}

func TestImagePixelTile_PathRoundTrip(t *testing.T) {
	tile := NewImagePixelTile("tile_raster_a", -128, 512, 2048, 2048, 2048, 2048)
	path := tile.RelativePath(".tif")

	got, err := ParseTilePath(path)
	if err != nil {
		t.Fatalf("ParseTilePath(%q): %v", path, err)
	}
	if !got.Equal(tile) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got.ImagePixel, tile.ImagePixel)
	}
}

func TestImagePixelTile_RelativePath_Format(t *testing.T) {
	tile := NewImagePixelTile("raster1", -64, 0, 256, 256, 256, 256)
	want := "image_pixel_tiles/raster1/width_height_256_256/width_offset_-64/height_offset_0.png"
	if got := tile.RelativePath(".png"); got != want {
		t.Errorf("RelativePath = %q, want %q", got, want)
	}
}

func TestMercatorTile_RelativePath_Format(t *testing.T) {
	tile := NewMercatorTile(5, 9, 14, 256, 256)
	want := "spherical_mercator_tiles/z_14/x_5/y_9.jpg"
	if got := tile.RelativePath(".jpg"); got != want {
		t.Errorf("RelativePath = %q, want %q", got, want)
	}
}

func TestParseTilePath_Unrecognized(t *testing.T) {
	if _, err := ParseTilePath("not/a/tile/path.png"); err == nil {
		t.Error("expected error for unrecognized path shape")
	}
}

func TestTile_Equal_IgnoresDiskSize(t *testing.T) {
	a := NewMercatorTile(1, 2, 3, 256, 256)
	b := NewMercatorTile(1, 2, 3, 512, 512)
	if !a.Equal(b) {
		t.Error("tiles with same identity but different disk size should be equal")
	}
}
