package dispatcher

import (
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
)

var (
	mRunsStarted = stats.Int64(
		"dbscan/dispatcher/runs_started", "Number of clustering runs taken from the queue", stats.UnitDimensionless)
	mRunsCompleted = stats.Int64(
		"dbscan/dispatcher/runs_completed", "Number of clustering runs finished successfully", stats.UnitDimensionless)
	mRunsFailed = stats.Int64(
		"dbscan/dispatcher/runs_failed", "Number of clustering runs that failed", stats.UnitDimensionless)
	mRunLatency = stats.Float64(
		"dbscan/dispatcher/run_latency", "Clustering run latency", stats.UnitMilliseconds)
)

// Views exports dispatcher measures for the metrics endpoint.
func Views() []*view.View {
	return []*view.View{
		{
			Name:        "dbscan/dispatcher/runs_started",
			Measure:     mRunsStarted,
			Description: "Number of clustering runs taken from the queue",
			Aggregation: view.Count(),
		},
		{
			Name:        "dbscan/dispatcher/runs_completed",
			Measure:     mRunsCompleted,
			Description: "Number of clustering runs finished successfully",
			Aggregation: view.Count(),
		},
		{
			Name:        "dbscan/dispatcher/runs_failed",
			Measure:     mRunsFailed,
			Description: "Number of clustering runs that failed",
			Aggregation: view.Count(),
		},
		{
			Name:        "dbscan/dispatcher/run_latency",
			Measure:     mRunLatency,
			Description: "Clustering run latency",
			Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000, 10000),
		},
	}
}
