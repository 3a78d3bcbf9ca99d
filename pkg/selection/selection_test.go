package selection

import (
	"sort"
	"testing"

	"github.com/valyala/fastrand"
)

type float64Slice []float64

func (s float64Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s float64Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func randomSlice(n int, rng *fastrand.RNG) float64Slice {
	s := make(float64Slice, n)
	for i := range s {
		s[i] = float64(rng.Uint32n(1 << 20))
	}
	return s
}

// checkSelected verifies the post condition of Select: the element at k equals
// the element a full sort would put there, everything left of k is not greater
// and everything right of k is not smaller.
func checkSelected(t *testing.T, data float64Slice, k int) {
	t.Helper()
	sorted := append(float64Slice(nil), data...)
	sort.Float64s(sorted)
	if data[k] != sorted[k] {
		t.Fatalf("got %f at rank %d, expected %f", data[k], k, sorted[k])
	}
	for i := 0; i < k; i++ {
		if data[i] > data[k] {
			t.Fatalf("element %f at %d is greater than the rank element %f", data[i], i, data[k])
		}
	}
	for i := k + 1; i < len(data); i++ {
		if data[i] < data[k] {
			t.Fatalf("element %f at %d is less than the rank element %f", data[i], i, data[k])
		}
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data float64Slice
		k    int
	}{
		{name: "single", data: float64Slice{7}, k: 0},
		{name: "pair", data: float64Slice{9, 1}, k: 0},
		{name: "median of five", data: float64Slice{3, 1, 4, 1, 5}, k: 2},
		{name: "min", data: float64Slice{5, 4, 3, 2, 1}, k: 0},
		{name: "max", data: float64Slice{5, 4, 3, 2, 1}, k: 4},
		{name: "ties", data: float64Slice{2, 2, 2, 1, 2, 2, 3, 2}, k: 3},
		{name: "sorted", data: float64Slice{1, 2, 3, 4, 5, 6, 7, 8}, k: 5},
		{name: "reversed", data: float64Slice{8, 7, 6, 5, 4, 3, 2, 1}, k: 2},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			Select(test.data, test.k, 0, len(test.data)-1)
			checkSelected(t, test.data, test.k)
		})
	}
}

func TestSelectRandom(t *testing.T) {
	t.Parallel()
	rng := &fastrand.RNG{}
	rng.Seed(1)
	for _, n := range []int{2, 17, 100, 599, 601, 5000} {
		data := randomSlice(n, rng)
		k := int(rng.Uint32n(uint32(n)))
		Select(data, k, 0, n-1)
		checkSelected(t, data, k)
	}
}

func TestSelectSubRange(t *testing.T) {
	t.Parallel()
	data := float64Slice{100, 9, 5, 7, 3, 1, -100}
	// only indices 1..5 take part
	Select(data, 3, 1, 5)
	sorted := append(float64Slice(nil), data[1:6]...)
	sort.Float64s(sorted)
	if data[3] != sorted[2] {
		t.Errorf("got %f at rank 3, expected %f", data[3], sorted[2])
	}
	if data[0] != 100 || data[6] != -100 {
		t.Errorf("elements outside the range moved: %v", data)
	}
}

func TestSelectAllEqual(t *testing.T) {
	t.Parallel()
	data := make(float64Slice, 1000)
	for i := range data {
		data[i] = 42
	}
	Select(data, 500, 0, len(data)-1)
	checkSelected(t, data, 500)
}
