package geom

import (
	"fmt"
	"math"

	"github.com/go-dbscan/dbscan/pkg/container/kdtree"
)

const (
	earthRadiusM = 6371000.0
	// meters spanned by one degree of latitude (and of longitude at the
	// equator)
	metersPerDegree = earthRadiusM * math.Pi / 180
)

var _ kdtree.Point = (*GeoPoint)(nil)

// GeoPoint is a latitude/longitude point (degrees) with Haversine distance in
// meters. Its comparison value is the haversine term of the central angle,
// which is monotonic in distance and avoids the asin and the square root. The
// per-axis radius conversion is what the index's axis pruning relies on:
// a meter of longitude shrinks with latitude, so axis 1 scales by cos(lat).
type GeoPoint struct {
	id  string
	lat float64
	lng float64
}

func NewGeoPoint(id string, lat, lng float64) *GeoPoint {
	return &GeoPoint{id: id, lat: lat, lng: lng}
}

func (p *GeoPoint) ID() string {
	return p.id
}

func (p *GeoPoint) Dimensions() int {
	return 2
}

func (p *GeoPoint) Coordinate(idx int) (float64, error) {
	switch idx {
	case 0:
		return p.lat, nil
	case 1:
		return p.lng, nil
	}
	return 0, fmt.Errorf("axis %d of geo point %q: %w", idx, p.id, ErrAxisOutOfRange)
}

func (p *GeoPoint) Lat() float64 { return p.lat }
func (p *GeoPoint) Lng() float64 { return p.lng }

func (p *GeoPoint) DistanceTo(other kdtree.Point) float64 {
	return 2 * earthRadiusM * math.Asin(math.Sqrt(p.CompareDistanceTo(other)))
}

func (p *GeoPoint) CompareDistanceTo(other kdtree.Point) float64 {
	lat, _ := other.Coordinate(0)
	lng, _ := other.Coordinate(1)

	phi := p.lat * math.Pi / 180
	phi1 := lat * math.Pi / 180
	dPhi := (lat - p.lat) * math.Pi / 180
	dLambda := (lng - p.lng) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	return sinPhi*sinPhi + math.Cos(phi)*math.Cos(phi1)*sinLambda*sinLambda
}

func (p *GeoPoint) CompareRadius(r float64) float64 {
	s := math.Sin(r / (2 * earthRadiusM))
	return s * s
}

func (p *GeoPoint) AxisRadius(r float64, idx int) float64 {
	if idx == 0 {
		return r / metersPerDegree
	}
	cos := math.Cos(p.lat * math.Pi / 180)
	if cos < 1e-6 {
		// near the poles a longitude band covers the whole circle
		return 360
	}
	return r / (metersPerDegree * cos)
}
