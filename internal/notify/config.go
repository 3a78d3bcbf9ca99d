package notify

import (
	"encoding/json"
	"time"

	"github.com/go-dbscan/dbscan/internal/httputil"
)

type Config struct {
	AllowNotify          bool          `envconfig:"DBSCAN_ALLOW_NOTIFY" default:"true"`
	Targets              Targets       `envconfig:"DBSCAN_NOTIFY_TARGETS"`
	Interval             time.Duration `envconfig:"DBSCAN_NOTIFY_INTERVAL" default:"5s"`
	RequestTimeout       time.Duration `envconfig:"DBSCAN_NOTIFY_REQUEST_TIMEOUT" default:"10s"`
	MaxConcurrentRequest int           `envconfig:"DBSCAN_NOTIFY_MAX_CONCURRENT_REQUEST" default:"64"`
}

func (c Config) NotifyConfig() Config {
	return c
}

type Targets []Target

func (ts *Targets) Decode(value string) error {
	targets := []Target{}
	if err := json.Unmarshal([]byte(value), &targets); err != nil {
		return err
	}
	*ts = targets
	return nil
}

type Target struct {
	URL        string                    `json:"url"`
	EntityID   string                    `json:"entityId"`
	HTTPConfig httputil.HTTPClientConfig `json:"httpConfig"`
}
