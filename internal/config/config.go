package config

import (
	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/clusterize"
	"github.com/go-dbscan/dbscan/internal/database"
	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/notify"
	"github.com/go-dbscan/dbscan/internal/results"
	"github.com/go-dbscan/dbscan/internal/setup"
	"github.com/go-dbscan/dbscan/internal/source"
	"github.com/go-dbscan/dbscan/internal/submit"
)

var (
	_ setup.SvcModeConfigProvider    = (*Config)(nil)
	_ setup.DatabaseConfigProvider   = (*Config)(nil)
	_ setup.NotifierConfigProvider   = (*Config)(nil)
	_ setup.ClusterConfigProvider    = (*Config)(nil)
	_ setup.DispatcherConfigProvider = (*Config)(nil)
	_ setup.SourceConfigProvider     = (*Config)(nil)
)

const (
	SvcModeTypeServe = "SERVE"
	SvcModeTypePull  = "PULL"
)

type Config struct {
	SvcModeType string `envconfig:"DBSCAN_SVC_MODE" default:"SERVE"`
	SrvAddr     string `envconfig:"DBSCAN_ADDR" default:":8787"`
	Dispatcher  dispatcher.Config
	Submit      submit.Config
	Clusterize  clusterize.Config
	Results     results.Config
	Database    database.Config
	Source      source.Config
	Cluster     cluster.Config
	Notify      notify.Config
}

func (c Config) SvcMode() string {
	return c.SvcModeType
}

func (c Config) DispatcherConfig() *dispatcher.Config {
	return &c.Dispatcher
}

func (c Config) NotifyConfig() *notify.Config {
	return &c.Notify
}

func (c Config) SourceConfig() *source.Config {
	return &c.Source
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) ClusterConfig() *cluster.Config {
	return &c.Cluster
}
