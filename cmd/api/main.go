package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"minishop/internal/catalog"
	"minishop/internal/config"
	"minishop/internal/httpserver"
	"minishop/internal/keystore"
	"minishop/internal/logger"
	"minishop/internal/metrics"
	"minishop/internal/repository/kv"
	"minishop/internal/service/device"
	"minishop/internal/service/product"
	"minishop/internal/service/session"
	"minishop/internal/shopper"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "minishop-api"}).Error(ctx, "load config", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		ServiceName: "minishop-api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "api stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo, err := kv.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, repo.Close()) }()
	log.Infof(ctx, "storage driver=%s", cfg.Storage.Driver)

	devices, err := device.New(cfg.Device)
	if err != nil {
		return err
	}
	catalogClient := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.Timeout,
		catalog.WithMetrics(m),
		catalog.WithLogger(log),
	)
	shoppers := shopper.NewRegistry(keystore.New(repo, log),
		shopper.WithLogger(log),
		shopper.WithSessionOptions(session.WithLatency(cfg.Session.SimulatedLatency)),
	)
	log.Warnf(ctx, "demo sign-in: passwords are accepted without verification")

	srv, err := httpserver.New(cfg.HTTP, httpserver.Deps{
		Devices:  devices,
		Products: product.New(catalogClient, cfg.Catalog.ListLimit),
		Shoppers: shoppers,
		Logger:   log,
		Metrics:  m,
		Gatherer: reg,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stopCh:
		log.Infof(ctx, "received signal %s, shutting down", sig)
	case runErr = <-serverErr:
		log.Error(ctx, "server error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return multierr.Append(runErr, err)
	}
	log.Infof(ctx, "server stopped")
	return runErr
}
