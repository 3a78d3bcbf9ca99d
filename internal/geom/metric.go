package geom

import (
	"fmt"
	"math"
)

type MetricFuncType string

const (
	MetricFuncTypeEuclidean MetricFuncType = "EUCLIDEAN"
	MetricFuncTypeManhattan MetricFuncType = "MANHATTAN"
	MetricFuncTypeChebyshev MetricFuncType = "CHEBYSHEV"
)

// Metric is a true distance plus the cheap comparison-value pair used by the
// spatial index: Compare must be monotonic in Distance and CompareRadius
// must map a radius into Compare's scale.
type Metric interface {
	Distance(vec, vec1 []float64) float64
	Compare(vec, vec1 []float64) float64
	CompareRadius(r float64) float64
}

func MetricFor(t MetricFuncType) (Metric, error) {
	switch t {
	case MetricFuncTypeEuclidean, "":
		return EuclideanMetric{}, nil
	case MetricFuncTypeManhattan:
		return ManhattanMetric{}, nil
	case MetricFuncTypeChebyshev:
		return ChebyshevMetric{}, nil
	default:
		return nil, fmt.Errorf("unknown distance function: %s", t)
	}
}

// EuclideanMetric is the L2 distance. Compare skips the final square root.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(vec, vec1 []float64) float64 {
	return math.Sqrt(sumOfSquares(vec, vec1))
}

func (EuclideanMetric) Compare(vec, vec1 []float64) float64 {
	return sumOfSquares(vec, vec1)
}

func (EuclideanMetric) CompareRadius(r float64) float64 {
	return r * r
}

func sumOfSquares(vec, vec1 []float64) float64 {
	var d float64
	for i := 0; i < len(vec) && i < len(vec1); i++ {
		diff := vec[i] - vec1[i]
		d += diff * diff
	}
	return d
}

// ManhattanMetric is the L1 (city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(vec, vec1 []float64) float64 {
	var d float64
	for i := 0; i < len(vec) && i < len(vec1); i++ {
		d += math.Abs(vec[i] - vec1[i])
	}
	return d
}

func (m ManhattanMetric) Compare(vec, vec1 []float64) float64 {
	return m.Distance(vec, vec1)
}

func (ManhattanMetric) CompareRadius(r float64) float64 {
	return r
}

// ChebyshevMetric is the L-infinity distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(vec, vec1 []float64) float64 {
	var d float64
	for i := 0; i < len(vec) && i < len(vec1); i++ {
		if abs := math.Abs(vec[i] - vec1[i]); abs > d {
			d = abs
		}
	}
	return d
}

func (m ChebyshevMetric) Compare(vec, vec1 []float64) float64 {
	return m.Distance(vec, vec1)
}

func (ChebyshevMetric) CompareRadius(r float64) float64 {
	return r
}
