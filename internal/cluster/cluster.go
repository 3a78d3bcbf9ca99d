package cluster

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-dbscan/dbscan/pkg/container/kdtree"
)

var (
	ErrInvalidEps       = errors.New("eps must be a positive finite number")
	ErrInvalidMinPoints = errors.New("min points must not be negative")
)

// Label classifies a point after a run. Points start Unvisited, end up either
// Noise or in a cluster numbered from 1.
type Label int32

const (
	Noise     Label = -1
	Unvisited Label = 0
)

// Result holds the partition produced by a run. Labels is keyed by point ID,
// Clusters by cluster number, both views describe the same assignment.
type Result struct {
	Clusters map[int][]kdtree.Point
	Labels   map[string]Label
}

// Outcome wraps a Result for off-thread delivery.
type Outcome struct {
	Result Result
	Err    error
}

type ProvideFn func(eps float64, minPoints int) (*Clusterer, error)

type Option func(*Clusterer)

func WithEps(eps float64) Option {
	return func(c *Clusterer) {
		c.eps = eps
	}
}

func WithMinPoints(n int) Option {
	return func(c *Clusterer) {
		c.minPoints = n
	}
}

const (
	defaultEps       = 0.5
	defaultMinPoints = 5
)

// Clusterer runs density clustering over a point set. A point is a core point
// when at least minPoints neighbors lie within eps of it, the queried point
// included. Core points within eps of each other merge into one cluster,
// points reachable from a core point but not core themselves join as border
// points, the rest come out as Noise.
type Clusterer struct {
	eps       float64
	minPoints int
}

func New(opts ...Option) (*Clusterer, error) {
	c := &Clusterer{eps: defaultEps, minPoints: defaultMinPoints}
	for _, f := range opts {
		f(c)
	}
	if c.eps <= 0 || math.IsInf(c.eps, 0) || math.IsNaN(c.eps) {
		return nil, fmt.Errorf("eps %f: %w", c.eps, ErrInvalidEps)
	}
	if c.minPoints < 0 {
		return nil, fmt.Errorf("min points %d: %w", c.minPoints, ErrInvalidMinPoints)
	}
	return c, nil
}

func (c *Clusterer) Eps() float64 {
	return c.eps
}

func (c *Clusterer) MinPoints() int {
	return c.minPoints
}

// Run builds a spatial index over points and partitions them. The partition
// does not depend on input order, only cluster numbering does.
func (c *Clusterer) Run(points ...kdtree.Point) (Result, error) {
	result := Result{
		Clusters: map[int][]kdtree.Point{},
		Labels:   map[string]Label{},
	}
	if len(points) == 0 {
		return result, nil
	}

	tree, err := kdtree.Build(points...)
	if err != nil {
		return Result{}, fmt.Errorf("build index: %w", err)
	}

	labels := make(map[string]Label, len(points))
	nextID := 0

	for _, p := range points {
		if labels[p.ID()] != Unvisited {
			continue
		}
		nbrs, err := tree.RangeSearch(p, c.eps)
		if err != nil {
			return Result{}, fmt.Errorf("range search: %w", err)
		}
		if len(nbrs) < c.minPoints {
			labels[p.ID()] = Noise
			continue
		}

		nextID++
		id := Label(nextID)
		labels[p.ID()] = id
		members := []kdtree.Point{p}

		seen := map[string]struct{}{p.ID(): {}}
		var queue []kdtree.Point
		for _, n := range nbrs {
			if n.ID() == p.ID() {
				continue
			}
			seen[n.ID()] = struct{}{}
			queue = append(queue, n)
		}

		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]

			if labels[q.ID()] > Unvisited {
				continue
			}
			labels[q.ID()] = id
			members = append(members, q)

			qNbrs, err := tree.RangeSearch(q, c.eps)
			if err != nil {
				return Result{}, fmt.Errorf("range search: %w", err)
			}
			if len(qNbrs) < c.minPoints {
				continue
			}
			for _, n := range qNbrs {
				if _, ok := seen[n.ID()]; ok {
					continue
				}
				seen[n.ID()] = struct{}{}
				queue = append(queue, n)
			}
		}

		result.Clusters[nextID] = members
	}

	for _, p := range points {
		result.Labels[p.ID()] = labels[p.ID()]
	}
	return result, nil
}

// RunAsync runs the partition off the calling goroutine and delivers exactly
// one Outcome on the returned channel. The channel is buffered, the caller may
// read it whenever convenient.
func (c *Clusterer) RunAsync(points ...kdtree.Point) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		result, err := c.Run(points...)
		ch <- Outcome{Result: result, Err: err}
	}()
	return ch
}
