package kdtree

// node owns exactly one point and up to two children; nodes are never shared
// between positions in the tree.
type node struct {
	key   Point
	left  *node
	right *node
}

func (n *node) points() []Point {
	var points []Point
	if n.left != nil {
		points = n.left.points()
	}
	points = append(points, n.key)
	if n.right != nil {
		points = append(points, n.right.points()...)
	}
	return points
}
