package geom

import (
	"errors"
	"math"
	"testing"
)

func TestPointCoordinate(t *testing.T) {
	t.Parallel()
	p := NewPoint("p-1", []float64{1.5, 2.5, 3.5}, nil)
	if p.Dimensions() != 3 {
		t.Errorf("got %d dimensions, expected 3", p.Dimensions())
	}
	for i, want := range []float64{1.5, 2.5, 3.5} {
		got, err := p.Coordinate(i)
		if err != nil {
			t.Errorf("unexpected error on axis %d: %v", i, err)
		}
		if got != want {
			t.Errorf("axis %d: got %f, expected %f", i, got, want)
		}
	}
	if _, err := p.Coordinate(3); !errors.Is(err, ErrAxisOutOfRange) {
		t.Errorf("expected ErrAxisOutOfRange, got %v", err)
	}
	if _, err := p.Coordinate(-1); !errors.Is(err, ErrAxisOutOfRange) {
		t.Errorf("expected ErrAxisOutOfRange, got %v", err)
	}
}

func TestPointDistance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		metric   Metric
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "euclidean default", metric: nil, p: []float64{0, 0}, p1: []float64{3, 4}, expected: 5},
		{name: "manhattan", metric: ManhattanMetric{}, p: []float64{0, 0}, p1: []float64{3, 4}, expected: 7},
		{name: "chebyshev", metric: ChebyshevMetric{}, p: []float64{0, 0}, p1: []float64{3, 4}, expected: 4},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			p := NewPoint("a", test.p, test.metric)
			p1 := NewPoint("b", test.p1, test.metric)
			if got := p.DistanceTo(p1); math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("got distance %f, expected %f", got, test.expected)
			}
		})
	}
}

func TestPointCompareConsistent(t *testing.T) {
	t.Parallel()
	p := NewPoint("a", []float64{1, 1}, nil)
	near := NewPoint("b", []float64{2, 2}, nil)
	far := NewPoint("c", []float64{10, 10}, nil)

	if p.CompareDistanceTo(near) >= p.CompareDistanceTo(far) {
		t.Errorf("comparison value must preserve distance ordering")
	}
	r := p.DistanceTo(near)
	if p.CompareDistanceTo(near) > p.CompareRadius(r)+1e-9 {
		t.Errorf("a point at distance r must fall inside CompareRadius(r)")
	}
}

func TestPointAxisRadius(t *testing.T) {
	t.Parallel()
	p := NewPoint("a", []float64{1, 2}, nil)
	if got := p.AxisRadius(3.5, 0); got != 3.5 {
		t.Errorf("got axis radius %f, expected 3.5", got)
	}
	if got := p.AxisRadius(3.5, 1); got != 3.5 {
		t.Errorf("got axis radius %f, expected 3.5", got)
	}
}
