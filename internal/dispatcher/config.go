package dispatcher

import "time"

type Config struct {
	MaxItemsStored int           `envconfig:"DBSCAN_MAX_RUNS_STORED" default:"1024"`
	MaxStorageTime time.Duration `envconfig:"DBSCAN_MAX_RUN_STORAGE_TIME" default:"0"`
	RebuildDBTime  time.Duration `envconfig:"DBSCAN_REBUILD_DB_TIME" default:"1m"`
	DBFlushTime    time.Duration `envconfig:"DBSCAN_DB_FLUSH_TIME" default:"5s"`
	DBFlushSize    int           `envconfig:"DBSCAN_DB_FLUSH_SIZE" default:"32"`
}

func (c Config) DispatcherConfig() Config {
	return c
}
