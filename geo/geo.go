// Package geo has the small amount of spherical geometry the listing search
// needs: great circle distances and bounding boxes for radius filters.
package geo

import "math"

// EarthRadiusKm is the mean earth radius.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Box is an axis aligned latitude/longitude rectangle.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(p Point) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLng && p.Longitude <= b.MaxLng
}

// DistanceKm returns the great circle distance between two points using the
// haversine formula.
func DistanceKm(a Point, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLng := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// BoundingBox returns the box containing every point within radiusKm of the
// center. It is a prefilter for an index scan: corners of the box lie farther
// out than the radius, so callers still need a DistanceKm check on the hits.
// Longitude does not wrap across the antimeridian.
func BoundingBox(center Point, radiusKm float64) Box {
	latDelta := degrees(radiusKm / EarthRadiusKm)

	// A degree of longitude shrinks with latitude. Near the poles the box
	// degenerates to the full longitude range.
	lngDelta := 180.0
	if cos := math.Cos(radians(center.Latitude)); cos > 1e-9 {
		lngDelta = math.Min(180, degrees(radiusKm/(EarthRadiusKm*cos)))
	}

	return Box{
		MinLat: math.Max(-90, center.Latitude-latDelta),
		MaxLat: math.Min(90, center.Latitude+latDelta),
		MinLng: math.Max(-180, center.Longitude-lngDelta),
		MaxLng: math.Min(180, center.Longitude+lngDelta),
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
