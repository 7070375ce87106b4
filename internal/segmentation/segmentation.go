// Package segmentation implements GeoSegmentation: a CRS-tracked collection
// of polygons representing one category's footprint, with conversions
// to/from raster masks and GeoJSON.
package segmentation

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/cartograph/geoseg/internal/geo"
	"github.com/cartograph/geoseg/internal/raster"
)

// GeoSegmentation is a list of polygons in a declared CRS, a mask color and
// a category name (spec.md §3).
type GeoSegmentation struct {
	Polygons  []orb.Polygon
	CRS       geo.CRS
	MaskColor color.RGBA
	Category  string
}

// TransformTo reprojects every polygon vertex into target, returning a new
// GeoSegmentation (the receiver is left unmodified).
func (g GeoSegmentation) TransformTo(target geo.CRS) (GeoSegmentation, error) {
	if g.CRS.Equal(target) {
		return g, nil
	}
	out := GeoSegmentation{CRS: target, MaskColor: g.MaskColor, Category: g.Category}
	out.Polygons = make([]orb.Polygon, len(g.Polygons))
	for i, poly := range g.Polygons {
		newPoly := make(orb.Polygon, len(poly))
		for j, ring := range poly {
			newRing := make(orb.Ring, len(ring))
			for k, pt := range ring {
				x, y, err := geo.Transform(g.CRS, target, pt[0], pt[1])
				if err != nil {
					return GeoSegmentation{}, fmt.Errorf("segmentation: transform: %w", err)
				}
				newRing[k] = orb.Point{x, y}
			}
			newPoly[j] = newRing
		}
		out.Polygons[i] = newPoly
	}
	return out, nil
}

// BufferMeters buffers every polygon outward (or inward, if negative) by the
// given distance in meters, computed in EPSG:3857 (spec.md §4.3). No
// polygon-offset library exists anywhere in the retrieved corpus, so this is
// a hand-rolled per-edge outward-normal displacement rather than a proper
// straight-skeleton offset — adequate for the roughly axis-aligned tile
// boundary polygons this pipeline produces, not a general-purpose solution.
func (g GeoSegmentation) BufferMeters(meters float64) (GeoSegmentation, error) {
	webMercator := geo.NewCRS(3857)
	projected, err := g.TransformTo(webMercator)
	if err != nil {
		return GeoSegmentation{}, err
	}

	out := GeoSegmentation{CRS: webMercator, MaskColor: g.MaskColor, Category: g.Category}
	out.Polygons = make([]orb.Polygon, len(projected.Polygons))
	for i, poly := range projected.Polygons {
		newPoly := make(orb.Polygon, len(poly))
		for j, ring := range poly {
			newPoly[j] = bufferRing(ring, meters)
		}
		out.Polygons[i] = newPoly
	}

	return out.TransformTo(g.CRS)
}

// bufferRing displaces each vertex along the average of its two adjacent
// edge outward normals, scaled by dist.
func bufferRing(ring orb.Ring, dist float64) orb.Ring {
	n := len(ring)
	if n < 3 {
		return ring
	}
	out := make(orb.Ring, n)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		cur := ring[i]
		next := ring[(i+1)%n]

		n1 := outwardNormal(prev, cur)
		n2 := outwardNormal(cur, next)
		nx, ny := (n1[0]+n2[0])/2, (n1[1]+n2[1])/2
		norm := math.Hypot(nx, ny)
		if norm > 1e-9 {
			nx, ny = nx/norm, ny/norm
		}
		out[i] = orb.Point{cur[0] + nx*dist, cur[1] + ny*dist}
	}
	return out
}

func outwardNormal(a, b orb.Point) [2]float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return [2]float64{0, 0}
	}
	// Right-hand normal; outward for a clockwise ring (raster-space rings
	// produced by the vectorizer below are clockwise).
	return [2]float64{dy / length, -dx / length}
}

// Rasterize fills the segmentation's polygons (transformed into the pixel
// space implied by transform) into a w x h raster.Pixels using MaskColor,
// via fogleman/gg's scan-conversion fill.
func (g GeoSegmentation) Rasterize(transform geo.Affine, w, h int) (*raster.Pixels, error) {
	inv, ok := transform.Invert()
	if !ok {
		return nil, fmt.Errorf("segmentation: rasterize: transform is not invertible")
	}

	ctx := gg.NewContext(w, h)
	ctx.SetRGBA255(int(g.MaskColor.R), int(g.MaskColor.G), int(g.MaskColor.B), int(g.MaskColor.A))

	for _, poly := range g.Polygons {
		for _, ring := range poly {
			if len(ring) < 3 {
				continue
			}
			for i, pt := range ring {
				px, py := inv.Apply(pt[0], pt[1])
				if i == 0 {
					ctx.MoveTo(px, py)
				} else {
					ctx.LineTo(px, py)
				}
			}
			ctx.ClosePath()
		}
	}
	ctx.Fill()

	img := ctx.Image()
	out := raster.NewPixels(w, h, 4, raster.DTypeUint8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, gC, b, a := img.At(x, y).RGBA()
			out.Set(x, y, 0, float64(r>>8))
			out.Set(x, y, 1, float64(gC>>8))
			out.Set(x, y, 2, float64(b>>8))
			out.Set(x, y, 3, float64(a>>8))
		}
	}
	return out, nil
}

// ToFeatureCollection converts the segmentation to an EPSG:4326 GeoJSON
// FeatureCollection, supplementing eot/geojson_ext/geojson_writing.py.
func (g GeoSegmentation) ToFeatureCollection() (*geojson.FeatureCollection, error) {
	wgs84 := g
	var err error
	if !g.CRS.Equal(geo.NewCRS(4326)) {
		wgs84, err = g.TransformTo(geo.NewCRS(4326))
		if err != nil {
			return nil, err
		}
	}

	fc := geojson.NewFeatureCollection()
	for _, poly := range wgs84.Polygons {
		f := geojson.NewFeature(poly)
		f.Properties["category"] = g.Category
		fc.Append(f)
	}
	return fc, nil
}
