package submit

import (
	"time"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"DBSCAN_SUBMIT_REQUEST_TIMEOUT" default:"60s"`
}
