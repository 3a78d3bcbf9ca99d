package srvenv

import (
	"context"

	"github.com/go-dbscan/dbscan/internal/cluster"
	"github.com/go-dbscan/dbscan/internal/database"
	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/notify"
	"github.com/go-dbscan/dbscan/internal/source"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database   *database.DB
	clusterer  cluster.ProvideFn
	dispatcher dispatcher.ProvideFn
	notifier   notify.ProvideFn
	source     source.ProvideFn
}

func (s *SrvEnv) ProvideSource() source.ProvideFn {
	return s.source
}

func (s *SrvEnv) ProvideNotifier() notify.ProvideFn {
	return s.notifier
}

func (s *SrvEnv) ProvideDispatcher() dispatcher.ProvideFn {
	return s.dispatcher
}

func (s *SrvEnv) ProvideClusterer() cluster.ProvideFn {
	return s.clusterer
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func WithSource(fn source.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.source = fn
		return s
	}
}

func WithNotifier(fn notify.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.notifier = fn
		return s
	}
}

func WithDispatcher(fn dispatcher.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.dispatcher = fn
		return s
	}
}

func WithClusterer(fn cluster.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.clusterer = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
