package selection

import "math"

// Interface is the minimal view of an indexable sequence required by Select.
// Less must impose a total order; a non-total order leaves the sequence in an
// unspecified arrangement rather than causing an error.
type Interface interface {
	Less(i, j int) bool
	Swap(i, j int)
}

// Ranges at most this long are partitioned directly; longer ranges are first
// narrowed by the Floyd-Rivest sampling step.
const samplingThreshold = 600

// Select rearranges data in place within [left, right] so that the element at
// index k is the element a full sort of [left, right] would place there, every
// element left of k is <= it and every element right of k is >= it. Elements
// outside [left, right] are not touched. An empty range or left == right is a
// no-op.
//
// The implementation is the Floyd-Rivest algorithm: large ranges are narrowed
// to a sampled sub-range statistically guaranteed to contain rank k before the
// exact partition step, which gives expected linear time.
func Select(data Interface, k, left, right int) {
	for right > left {
		if right-left > samplingThreshold {
			n := float64(right - left + 1)
			i := float64(k - left + 1)
			z := math.Log(n)
			s := 0.5 * math.Exp(2*z/3)
			sd := 0.5 * math.Sqrt(z*s*(n-s)/n)
			if i < n/2 {
				sd = -sd
			}
			newLeft := maxInt(left, int(float64(k)-i*s/n+sd))
			newRight := minInt(right, int(float64(k)+(n-i)*s/n+sd))
			Select(data, k, newLeft, newRight)
		}

		// Hoare-style partition around the element currently at k. The pivot
		// is accessed only through comparisons, so its index is tracked
		// through every swap.
		i, j := left, right
		data.Swap(left, k)
		pivot := left
		if data.Less(pivot, right) {
			data.Swap(right, left)
			pivot = right
		}
		for i < j {
			data.Swap(i, j)
			pivot = trackSwap(pivot, i, j)
			i++
			j--
			for data.Less(i, pivot) {
				i++
			}
			for data.Less(pivot, j) {
				j--
			}
		}

		if !data.Less(left, pivot) && !data.Less(pivot, left) {
			data.Swap(left, j)
		} else {
			j++
			data.Swap(j, right)
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}

func trackSwap(pivot, i, j int) int {
	switch pivot {
	case i:
		return j
	case j:
		return i
	}
	return pivot
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
