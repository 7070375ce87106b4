package geo

// Projection defines the interface for converting between a source CRS and WGS84.
type Projection interface {
	// ToWGS84 converts source CRS coordinates to WGS84 longitude/latitude (degrees).
	ToWGS84(x, y float64) (lon, lat float64)

	// FromWGS84 converts WGS84 longitude/latitude (degrees) to source CRS coordinates.
	FromWGS84(lon, lat float64) (x, y float64)

	// EPSG returns the EPSG code for this projection.
	EPSG() int
}

var builtinProjections = map[int]func() Projection{
	2056: func() Projection { return &SwissLV95{} },
	4326: func() Projection { return &WGS84Identity{} },
	3857: func() Projection { return &WebMercatorProj{} },
}

var registeredProjections = map[int]func() Projection{}

// RegisterEPSG registers a Projection factory for an EPSG code not covered by
// the built-in set. Raster adapters call this when a GeoTIFF's GeoKeys name
// an EPSG code outside {2056, 4326, 3857} that they know how to approximate.
func RegisterEPSG(epsg int, factory func() Projection) {
	registeredProjections[epsg] = factory
}

// ForEPSG returns a Projection for the given EPSG code, checking built-ins
// first and then any codes registered via RegisterEPSG.
// Returns nil if the EPSG code is not supported.
func ForEPSG(epsg int) Projection {
	if f, ok := builtinProjections[epsg]; ok {
		return f()
	}
	if f, ok := registeredProjections[epsg]; ok {
		return f()
	}
	return nil
}

// WGS84Identity is a no-op projection for data already in EPSG:4326.
type WGS84Identity struct{}

func (w *WGS84Identity) ToWGS84(x, y float64) (lon, lat float64) { return x, y }
func (w *WGS84Identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (w *WGS84Identity) EPSG() int { return 4326 }
