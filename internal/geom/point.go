package geom

import (
	"errors"
	"fmt"

	"github.com/go-dbscan/dbscan/pkg/container/kdtree"
)

var ErrAxisOutOfRange = errors.New("geom: axis index out of range")

var _ kdtree.Point = (*Point)(nil)

// Point is a vector-backed point with a pluggable metric. For the metrics in
// this package the reach of a radius along any single axis is the radius
// itself, so AxisRadius returns r unchanged.
type Point struct {
	id     string
	vec    []float64
	metric Metric
}

func NewPoint(id string, vec []float64, metric Metric) *Point {
	if metric == nil {
		metric = EuclideanMetric{}
	}
	return &Point{id: id, vec: vec, metric: metric}
}

func (p *Point) ID() string {
	return p.id
}

func (p *Point) Dimensions() int {
	return len(p.vec)
}

func (p *Point) Coordinate(idx int) (float64, error) {
	if idx < 0 || idx >= len(p.vec) {
		return 0, fmt.Errorf("axis %d of %d-dimensional point %q: %w", idx, len(p.vec), p.id, ErrAxisOutOfRange)
	}
	return p.vec[idx], nil
}

func (p *Point) Vector() []float64 {
	return p.vec
}

func (p *Point) DistanceTo(other kdtree.Point) float64 {
	return p.metric.Distance(p.vec, vectorOf(other))
}

func (p *Point) CompareDistanceTo(other kdtree.Point) float64 {
	return p.metric.Compare(p.vec, vectorOf(other))
}

func (p *Point) CompareRadius(r float64) float64 {
	return p.metric.CompareRadius(r)
}

func (p *Point) AxisRadius(r float64, idx int) float64 {
	return r
}

func vectorOf(p kdtree.Point) []float64 {
	if v, ok := p.(*Point); ok {
		return v.vec
	}
	vec := make([]float64, p.Dimensions())
	for i := range vec {
		vec[i], _ = p.Coordinate(i)
	}
	return vec
}
