package main

import (
	"context"
	"flag"
	"os"

	"minishop/internal/catalog"
	"minishop/internal/config"
	"minishop/internal/keystore"
	"minishop/internal/logger"
	"minishop/internal/repository/kv"
	"minishop/internal/seed"
	"minishop/internal/shopper"

	"github.com/joho/godotenv"
)

func main() {
	var namespace string
	flag.StringVar(&namespace, "namespace", "", "Device namespace to seed (the namespace field of POST /devices)")
	flag.Parse()
	if namespace == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "minishop-seed"}).Error(ctx, "load config", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		ServiceName: "minishop-seed",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warnf(ctx, "storage driver is memory; seeded data is lost when this command exits")
	}

	repo, err := kv.Open(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "open storage", err)
		os.Exit(1)
	}
	defer repo.Close()

	reg := shopper.NewRegistry(keystore.New(repo, log), shopper.WithLogger(log))
	cat := catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, catalog.WithLogger(log))

	if err := seed.Apply(ctx, reg, cat, namespace, seed.DefaultDemo); err != nil {
		log.Error(ctx, "seed apply", err)
		os.Exit(1)
	}
	log.Infof(ctx, "seeded namespace=%s email=%s", namespace, seed.DefaultDemo.Email)
}
