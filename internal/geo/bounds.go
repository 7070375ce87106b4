package geo

import "math"

// Bounds is an axis-aligned rectangle in the coordinates of some CRS
// (callers are responsible for tracking which one, as spec.md's Raster and
// GeoSegmentation types do explicitly).
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Corners returns the four corners in (minx,miny), (maxx,miny), (maxx,maxy),
// (minx,maxy) order.
func (b Bounds) Corners() [4][2]float64 {
	return [4][2]float64{
		{b.MinX, b.MinY},
		{b.MaxX, b.MinY},
		{b.MaxX, b.MaxY},
		{b.MinX, b.MaxY},
	}
}

// Width and Height report the extent along each axis.
func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Intersects reports whether two bounds overlap (touching edges count).
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Union returns the smallest bounds containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// BoundsFromPixelRect computes the world-coordinate bounds covered by a pixel
// rectangle [0,width]x[0,height] under the given pixel→world affine. Handles
// rotated/sheared affines by taking the bounding box of all four transformed
// corners rather than assuming axis alignment.
func BoundsFromPixelRect(a Affine, width, height float64) Bounds {
	corners := [4][2]float64{{0, 0}, {width, 0}, {width, height}, {0, height}}
	x0, y0 := a.Apply(corners[0][0], corners[0][1])
	b := Bounds{MinX: x0, MaxX: x0, MinY: y0, MaxY: y0}
	for _, c := range corners[1:] {
		x, y := a.Apply(c[0], c[1])
		b.MinX = math.Min(b.MinX, x)
		b.MaxX = math.Max(b.MaxX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxY = math.Max(b.MaxY, y)
	}
	return b
}
