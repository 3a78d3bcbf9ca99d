package cluster

import "github.com/go-dbscan/dbscan/internal/geom"

type Config struct {
	Eps            float64             `envconfig:"DBSCAN_EPS" default:"0.5"`
	MinPoints      int                 `envconfig:"DBSCAN_MIN_POINTS" default:"5"`
	MetricFuncType geom.MetricFuncType `envconfig:"DBSCAN_DISTANCE_FUNC" default:"EUCLIDEAN"`
}

func (c Config) ClusterConfig() Config {
	return c
}
