package setup

import (
	"context"
	"fmt"

	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/database"
	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/notify"
	"github.com/go-dbscan/dbscan/internal/source"
	"github.com/go-dbscan/dbscan/internal/srvenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	SvcModeServe string = "SERVE"
	SvcModePull  string = "PULL"
)

type SvcModeConfigProvider interface {
	SvcMode() string
}

type DispatcherConfigProvider interface {
	DispatcherConfig() *dispatcher.Config
}

type NotifierConfigProvider interface {
	NotifyConfig() *notify.Config
}

type SourceConfigProvider interface {
	SourceConfig() *source.Config
}

type ClusterConfigProvider interface {
	ClusterConfig() *cluster.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db                 *database.DB
		clustererProvideFn cluster.ProvideFn
		notifierProvideFn  notify.ProvideFn
		dispatchProvideFn  dispatcher.ProvideFn
		sourceProvideFn    source.ProvideFn
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if notifyConfigProvider, ok := config.(NotifierConfigProvider); ok {
		logger.Info("Configuring notifier")
		provideFn, err := ProvideNotifierFor(notifyConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create notifier provide function: %v", err)
		}
		notifierProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithNotifier(notifierProvideFn))
	}

	if clusterConfigProvider, ok := config.(ClusterConfigProvider); ok {
		logger.Info("Configuring clusterer")
		provideFn, err := ProvideClustererFor(clusterConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create clusterer provide function: %v", err)
		}
		clustererProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithClusterer(clustererProvideFn))
	}

	if dispatcherConfigProvider, ok := config.(DispatcherConfigProvider); ok {
		logger.Info("Configuring dispatcher")
		provideFn, err := ProvideDispatcherFor(dispatcherConfigProvider, clustererProvideFn, db)
		if err != nil {
			return nil, fmt.Errorf("unable create dispatcher provide function: %v", err)
		}
		dispatchProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDispatcher(dispatchProvideFn))
	}

	if svcModeConfigProvider, ok := config.(SvcModeConfigProvider); ok && svcModeConfigProvider.SvcMode() == SvcModePull {
		if sourceConfigProvider, ok := config.(SourceConfigProvider); ok {
			logger.Info("Configuring source")
			provideFn, err := ProvideSourceFor(sourceConfigProvider)
			if err != nil {
				return nil, fmt.Errorf("unable create source provide function: %v", err)
			}
			sourceProvideFn = provideFn
			serverEnvOpts = append(serverEnvOpts, srvenv.WithSource(sourceProvideFn))
		}
	}
	return srvenv.New(serverEnvOpts...), nil
}

func ProvideSourceFor(provider SourceConfigProvider) (source.ProvideFn, error) {
	cfg := provider.SourceConfig()
	return func(disp dispatcher.Manager, shutdownCh chan<- error) (source.Manager, error) {
		return source.New(
			disp,
			shutdownCh,
			source.WithInterval(cfg.Interval),
			source.WithRequestTimeout(cfg.RequestTimeout),
			source.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			source.WithTargetUrls(cfg.Targets),
		)
	}, nil
}

func ProvideNotifierFor(provider NotifierConfigProvider) (notify.ProvideFn, error) {
	cfg := provider.NotifyConfig()
	return func(shutdownCh chan<- error) (notify.Manager, error) {
		return notify.New(
			shutdownCh,
			notify.WithMaxConcurrentRequest(cfg.MaxConcurrentRequest),
			notify.WithNotifyInterval(cfg.Interval),
			notify.WithRequestTimeout(cfg.RequestTimeout),
			notify.WithTargets(cfg.Targets),
		)
	}, nil
}

func ProvideDispatcherFor(
	provider DispatcherConfigProvider,
	provideClustererFn cluster.ProvideFn,
	db *database.DB,
) (dispatcher.ProvideFn, error) {
	cfg := provider.DispatcherConfig()
	return func(notifier notify.Manager, shutdownCh chan<- error) (dispatcher.Manager, error) {
		return dispatcher.New(
			db,
			provideClustererFn,
			notifier,
			shutdownCh,
			dispatcher.WithRebuildDBTime(cfg.RebuildDBTime),
			dispatcher.WithMaxItemsStored(cfg.MaxItemsStored),
			dispatcher.WithMaxStorageTime(cfg.MaxStorageTime),
			dispatcher.WithDBFlushSize(cfg.DBFlushSize),
			dispatcher.WithDBFlushTime(cfg.DBFlushTime),
		)
	}, nil
}

// ProvideClustererFor builds the run factory. Runs that come in without
// parameters fall back to the configured defaults.
func ProvideClustererFor(provider ClusterConfigProvider) (cluster.ProvideFn, error) {
	cfg := provider.ClusterConfig()
	return func(eps float64, minPoints int) (*cluster.Clusterer, error) {
		if eps == 0 {
			eps = cfg.Eps
		}
		if minPoints == 0 {
			minPoints = cfg.MinPoints
		}
		c, err := cluster.New(cluster.WithEps(eps), cluster.WithMinPoints(minPoints))
		if err != nil {
			return nil, fmt.Errorf("unable create clusterer instance: %v", err)
		}
		return c, nil
	}, nil
}
