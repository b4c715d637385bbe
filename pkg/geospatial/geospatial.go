package geospatial

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// KmPerDegree is the planar conversion used by Distance.
const KmPerDegree = 111.0

// Distance returns the approximate distance in kilometers between two
// coordinates. It treats one degree of latitude or longitude as 111 km and
// combines the two axis deltas euclidean-style; it is not a true haversine.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := math.Abs(lat1-lat2) * KmPerDegree
	dLng := math.Abs(lng1-lng2) * KmPerDegree
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// CoordinatesValid reports whether lat/lng fall within the WGS84 ranges.
func CoordinatesValid(lat, lng float64) bool {
	return math.Abs(lat) <= 90 && math.Abs(lng) <= 180
}

// BoundingBox is a lat/lng rectangle used as a coarse region filter
type BoundingBox struct {
	Name   string  `json:"name" yaml:"name"`
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MinLng float64 `json:"min_lng" yaml:"min_lng"`
	MaxLng float64 `json:"max_lng" yaml:"max_lng"`
}

// Bound converts the box to an orb.Bound (x = lng, y = lat).
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return b.Bound().Contains(orb.Point{lng, lat})
}

// InAnyBox reports whether the point lies inside at least one box.
func InAnyBox(boxes []BoundingBox, lat, lng float64) bool {
	for _, box := range boxes {
		if box.Contains(lat, lng) {
			return true
		}
	}
	return false
}

// ParseWKTPoint parses a WKT point such as "POINT(88.98 22.35)" and returns
// latitude and longitude.
func ParseWKTPoint(s string) (lat, lng float64, err error) {
	p, err := wkt.UnmarshalPoint(strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid WKT point: %w", err)
	}
	return p.Lat(), p.Lon(), nil
}

// ValidateGeoJSON parses a GeoJSON feature or bare geometry
func ValidateGeoJSON(data []byte) (orb.Geometry, error) {
	if feature, err := geojson.UnmarshalFeature(data); err == nil && feature.Geometry != nil {
		return feature.Geometry, nil
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	if g.Coordinates == nil && len(g.Geometries) == 0 {
		return nil, errors.New("invalid GeoJSON: no geometry")
	}

	return g.Geometry(), nil
}

// CalculateArea calculates the geodesic area in square meters for a geometry
func CalculateArea(geometry orb.Geometry) float64 {
	return geo.Area(geometry)
}

// CalculateCentroid calculates the centroid of a geometry
func CalculateCentroid(geometry orb.Geometry) orb.Point {
	centroid, _ := planar.CentroidArea(geometry)
	return centroid
}

// ConvertToHectares converts square meters to hectares
func ConvertToHectares(sqMeters float64) float64 {
	return sqMeters / 10000
}
