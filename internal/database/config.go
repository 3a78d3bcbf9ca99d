package database

type Config struct {
	FileName string `envconfig:"DBSCAN_DB_PATH" default:"dbscan.db"`
}

func (c *Config) DatabaseConfig() *Config {
	return c
}
