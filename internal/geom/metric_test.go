package geom

import (
	"math"
	"testing"
)

func TestEuclideanMetric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "unit", p: []float64{1.2, 2.0}, p1: []float64{2.0, 3.0}, expected: 1.2806248474865698},
		{name: "axis", p: []float64{10, 2.0}, p1: []float64{5, 2.0}, expected: 5},
		{name: "same", p: []float64{3, 4}, p1: []float64{3, 4}, expected: 0},
	}
	m := EuclideanMetric{}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := m.Distance(test.p, test.p1)
			if math.Abs(got-test.expected) > 1e-12 {
				t.Errorf("got distance %f, expected %f", got, test.expected)
			}
			cmp := m.Compare(test.p, test.p1)
			if math.Abs(cmp-test.expected*test.expected) > 1e-9 {
				t.Errorf("got compare value %f, expected %f", cmp, test.expected*test.expected)
			}
		})
	}
}

func TestEuclideanCompareRadius(t *testing.T) {
	t.Parallel()
	m := EuclideanMetric{}
	if got := m.CompareRadius(3); got != 9 {
		t.Errorf("got compare radius %f, expected 9", got)
	}
}

func TestManhattanMetric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "positive", p: []float64{1, 2}, p1: []float64{4, 6}, expected: 7},
		{name: "negative", p: []float64{-1, -2}, p1: []float64{1, 2}, expected: 6},
		{name: "same", p: []float64{5, 5}, p1: []float64{5, 5}, expected: 0},
	}
	m := ManhattanMetric{}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := m.Distance(test.p, test.p1); got != test.expected {
				t.Errorf("got distance %f, expected %f", got, test.expected)
			}
			if got := m.Compare(test.p, test.p1); got != test.expected {
				t.Errorf("got compare value %f, expected %f", got, test.expected)
			}
			if got := m.CompareRadius(test.expected); got != test.expected {
				t.Errorf("got compare radius %f, expected %f", got, test.expected)
			}
		})
	}
}

func TestChebyshevMetric(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		p        []float64
		p1       []float64
		expected float64
	}{
		{name: "x dominates", p: []float64{10, 2}, p1: []float64{5, 3}, expected: 5},
		{name: "y dominates", p: []float64{1.2, 2.0}, p1: []float64{2.0, 5.0}, expected: 3},
		{name: "same", p: []float64{1, 1}, p1: []float64{1, 1}, expected: 0},
	}
	m := ChebyshevMetric{}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := m.Distance(test.p, test.p1); got != test.expected {
				t.Errorf("got distance %f, expected %f", got, test.expected)
			}
		})
	}
}

func TestMetricFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		typ     MetricFuncType
		wantErr bool
	}{
		{name: "euclidean", typ: MetricFuncTypeEuclidean},
		{name: "manhattan", typ: MetricFuncTypeManhattan},
		{name: "chebyshev", typ: MetricFuncTypeChebyshev},
		{name: "default", typ: ""},
		{name: "unknown", typ: "COSINE", wantErr: true},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			m, err := MetricFor(test.typ)
			if test.wantErr {
				if err == nil {
					t.Errorf("expected error for metric type %q", test.typ)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if m == nil {
				t.Errorf("expected metric for type %q", test.typ)
			}
		})
	}
}
