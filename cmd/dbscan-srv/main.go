package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	ocprom "contrib.go.opencensus.io/exporter/prometheus"
	"github.com/go-dbscan/dbscan/internal/buildinfo"
	"github.com/go-dbscan/dbscan/internal/clusterize"
	dbscan "github.com/go-dbscan/dbscan/internal/config"
	"github.com/go-dbscan/dbscan/internal/dispatcher"
	"github.com/go-dbscan/dbscan/internal/logging"
	"github.com/go-dbscan/dbscan/internal/results"
	"github.com/go-dbscan/dbscan/internal/server"
	"github.com/go-dbscan/dbscan/internal/setup"
	"github.com/go-dbscan/dbscan/internal/shutdown"
	"github.com/go-dbscan/dbscan/internal/submit"
	"go.opencensus.io/stats/view"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	var (
		shutdownCh    chan error
		shutdownCount = 2
	)
	config := dbscan.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}

	if config.SvcModeType == dbscan.SvcModeTypePull {
		shutdownCount++
	}

	shutdownCh = make(chan error, shutdownCount)
	notifier, err := env.ProvideNotifier()(shutdownCh)
	if err != nil {
		return fmt.Errorf("notifier provider function error: %w", err)
	}
	disp, err := env.ProvideDispatcher()(notifier, shutdownCh)
	if err != nil {
		return fmt.Errorf("dispatcher provider function error: %w", err)
	}

	if config.SvcModeType == dbscan.SvcModeTypePull {
		src, err := env.ProvideSource()(disp, shutdownCh)
		if err != nil {
			return fmt.Errorf("source provider function error: %w", err)
		}
		if err := src.Run(ctx); err != nil {
			return fmt.Errorf("source.Run: %w", err)
		}
	} else if err := disp.Run(ctx); err != nil {
		return fmt.Errorf("dispatcher.Run: %w", err)
	}

	if err := view.Register(dispatcher.Views()...); err != nil {
		return fmt.Errorf("view.Register: %w", err)
	}
	exporter, err := ocprom.NewExporter(ocprom.Options{Namespace: "dbscan"})
	if err != nil {
		return fmt.Errorf("prometheus.NewExporter: %w", err)
	}
	view.RegisterExporter(exporter)

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	clusterizeHandler, err := clusterize.NewHandler(&config.Clusterize, env.ProvideClusterer())
	if err != nil {
		return fmt.Errorf("clusterize.NewHandler: %w", err)
	}
	resultsHandler, err := results.NewHandler(&config.Results, disp)
	if err != nil {
		return fmt.Errorf("results.NewHandler: %w", err)
	}

	mux.Handle("/cluster", clusterizeHandler)
	mux.Handle("/results", resultsHandler)
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/metrics", exporter)

	if config.SvcModeType == dbscan.SvcModeTypeServe {
		submitHandler, err := submit.NewHandler(&config.Submit, disp)
		if err != nil {
			return fmt.Errorf("submit.NewHandler: %w", err)
		}
		mux.Handle("/datasets", submitHandler)
	}

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
