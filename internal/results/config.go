package results

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"DBSCAN_RESULTS_REQUEST_TIMEOUT" default:"15s"`
}
