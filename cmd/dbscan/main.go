package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/geom"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/shutdown"
	"github.com/go-dbscan/dbscan/pkg/container/kdtree"
)

type inputPoint struct {
	ID  string    `json:"id"`
	Vec []float64 `json:"vector"`
}

type output struct {
	Clusters map[int][]string `json:"clusters"`
	Labels   map[string]int32 `json:"labels"`
}

func main() {
	input := flag.String("input", "", "path to a json file with points")
	eps := flag.Float64("eps", 0.5, "neighborhood radius")
	minPoints := flag.Int("min-points", 5, "density threshold, the queried point included")
	metricType := flag.String("metric", "EUCLIDEAN", "distance metric: EUCLIDEAN, MANHATTAN or CHEBYSHEV")
	flag.Parse()

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)

	if *input == "" {
		logger.Fatal("input file is required")
	}
	if err := run(ctx, *input, *eps, *minPoints, *metricType); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, input string, eps float64, minPoints int, metricType string) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var inputPoints []inputPoint
	if err := json.Unmarshal(raw, &inputPoints); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	metric, err := geom.MetricFor(geom.MetricFuncType(metricType))
	if err != nil {
		return fmt.Errorf("resolve metric: %w", err)
	}
	clusterer, err := cluster.New(cluster.WithEps(eps), cluster.WithMinPoints(minPoints))
	if err != nil {
		return fmt.Errorf("create clusterer: %w", err)
	}

	points := make([]kdtree.Point, len(inputPoints))
	for i, p := range inputPoints {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("p-%d", i)
		}
		points[i] = geom.NewPoint(id, p.Vec, metric)
	}

	select {
	case outcome := <-clusterer.RunAsync(points...):
		if outcome.Err != nil {
			return fmt.Errorf("clusterize: %w", outcome.Err)
		}
		out := output{
			Clusters: make(map[int][]string, len(outcome.Result.Clusters)),
			Labels:   make(map[string]int32, len(outcome.Result.Labels)),
		}
		for id, members := range outcome.Result.Clusters {
			ids := make([]string, len(members))
			for i := range members {
				ids[i] = members[i].ID()
			}
			out.Clusters[id] = ids
		}
		for id, label := range outcome.Result.Labels {
			out.Labels[id] = int32(label)
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, _ = fmt.Fprintln(os.Stdout, string(encoded))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
