package kdtree

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-dbscan/dbscan/pkg/selection"
)

var (
	// ErrDimensions is returned when a point reports a non-positive number
	// of dimensions at build time.
	ErrDimensions = errors.New("kdtree: point dimensions must be positive")
	// ErrDimensionsMismatch is returned when points of differing
	// dimensionality are mixed in one tree, or a query point disagrees with
	// the dimensionality the tree was built with.
	ErrDimensionsMismatch = errors.New("kdtree: dimensions mismatch")
)

// Point is the capability interface indexed points must implement. The two
// Compare methods exist so implementations can avoid the full distance
// computation (e.g. squared Euclidean distance without the final square
// root): CompareDistanceTo must be monotonic in DistanceTo and CompareRadius
// must map a radius into the same scale. AxisRadius converts a radius into
// the linear units of a single axis, which is what makes subtree pruning
// valid for metrics whose axes are not uniformly scaled (geographic
// coordinates being the usual case). A non-monotonic comparison value or an
// inconsistent conversion silently degrades query results; it is not
// detected at runtime.
type Point interface {
	ID() string
	Dimensions() int
	Coordinate(idx int) (float64, error)
	DistanceTo(other Point) float64
	CompareDistanceTo(other Point) float64
	CompareRadius(radius float64) float64
	AxisRadius(radius float64, idx int) float64
}

// Tree is a balanced k-d tree over a fixed point set. It is immutable after
// construction; rebuild it to change the set.
type Tree struct {
	root *node
	dim  int
	len  int
}

// Build constructs a balanced tree by recursive median partitioning: at depth
// d points are split on axis d mod k around the true median, found in place
// with selection.Select rather than by sorting, which keeps construction at
// expected O(n log n). Building from zero points yields a valid empty tree.
func Build(points ...Point) (*Tree, error) {
	t := &Tree{}
	if len(points) == 0 {
		return t, nil
	}

	dim := points[0].Dimensions()
	if dim <= 0 {
		return nil, fmt.Errorf("point %q reports %d dimensions: %w", points[0].ID(), dim, ErrDimensions)
	}
	for i := range points {
		if points[i].Dimensions() != dim {
			return nil, fmt.Errorf(
				"point %q reports %d dimensions, tree is %d-dimensional: %w",
				points[i].ID(), points[i].Dimensions(), dim, ErrDimensionsMismatch,
			)
		}
	}

	pts := make([]Point, len(points))
	copy(pts, points)

	t.dim = dim
	t.len = len(pts)
	t.root = buildNode(pts, 0, dim)
	return t, nil
}

// buildNode operates on disjoint sub-slices of one backing array; no point
// data is copied below Build.
func buildNode(points []Point, depth, dim int) *node {
	switch len(points) {
	case 0:
		return nil
	case 1:
		return &node{key: points[0]}
	}

	axis := depth % dim
	mid := len(points) / 2
	selection.Select(&axisOrder{points: points, axis: axis}, mid, 0, len(points)-1)

	return &node{
		key:   points[mid],
		left:  buildNode(points[:mid], depth+1, dim),
		right: buildNode(points[mid+1:], depth+1, dim),
	}
}

func (t *Tree) Len() int {
	return t.len
}

// Points collects the indexed points in tree order.
func (t *Tree) Points() []Point {
	if t.root == nil {
		return []Point{}
	}
	return t.root.points()
}

// RangeSearch returns every indexed point within radius of q under the
// points' true distance metric. The traversal is iterative with an explicit
// stack: the near child of every visited node is always descended, the far
// child only when the axis-converted radius still reaches across the
// splitting plane.
func (t *Tree) RangeSearch(q Point, radius float64) ([]Point, error) {
	if t.root == nil {
		return []Point{}, nil
	}
	if q.Dimensions() != t.dim {
		return nil, fmt.Errorf(
			"query point %q reports %d dimensions, tree is %d-dimensional: %w",
			q.ID(), q.Dimensions(), t.dim, ErrDimensionsMismatch,
		)
	}

	// Converted once per query, not per node.
	threshold := q.CompareRadius(radius)

	type frame struct {
		n     *node
		depth int
	}
	stack := []frame{{n: t.root, depth: 0}}
	found := []Point{}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if q.CompareDistanceTo(f.n.key) <= threshold {
			found = append(found, f.n.key)
		}

		axis := f.depth % t.dim
		qc, err := q.Coordinate(axis)
		if err != nil {
			return nil, fmt.Errorf("query coordinate on axis %d: %w", axis, err)
		}
		nc, err := f.n.key.Coordinate(axis)
		if err != nil {
			return nil, fmt.Errorf("node coordinate on axis %d: %w", axis, err)
		}

		delta := qc - nc
		near, far := f.n.left, f.n.right
		if delta > 0 {
			near, far = f.n.right, f.n.left
		}
		if near != nil {
			stack = append(stack, frame{n: near, depth: f.depth + 1})
		}
		if far != nil && math.Abs(delta) <= q.AxisRadius(radius, axis) {
			stack = append(stack, frame{n: far, depth: f.depth + 1})
		}
	}

	return found, nil
}

// axisOrder adapts a point slice to selection.Interface, comparing by a single
// coordinate axis. The axis is always within [0, dim) by construction, so the
// coordinate error path is unreachable here.
type axisOrder struct {
	points []Point
	axis   int
}

func (s *axisOrder) Less(i, j int) bool {
	vi, _ := s.points[i].Coordinate(s.axis)
	vj, _ := s.points[j].Coordinate(s.axis)
	return vi < vj
}

func (s *axisOrder) Swap(i, j int) {
	s.points[i], s.points[j] = s.points[j], s.points[i]
}
