package clusterize

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"DBSCAN_CLUSTERIZE_REQUEST_TIMEOUT" default:"60s"`
	MaxDatasetsLen int           `envconfig:"DBSCAN_CLUSTERIZE_MAX_DATASETS_LEN" default:"16"`
}
