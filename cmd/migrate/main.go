package main

import (
	"context"
	"flag"
	"os"

	"minishop/internal/config"
	"minishop/internal/db"
	"minishop/internal/logger"
	"minishop/internal/migrate"

	"github.com/joho/godotenv"
)

func main() {
	down := flag.Bool("down", false, "Roll back all migrations instead of applying them")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{ServiceName: "minishop-migrate"}).Error(ctx, "load config", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		ServiceName: "minishop-migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Error(ctx, "connect db", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *down {
		if err := migrate.Down(ctx, pool); err != nil {
			log.Error(ctx, "roll back migrations", err)
			os.Exit(1)
		}
		log.Infof(ctx, "migrations rolled back")
		return
	}

	version, err := migrate.Apply(ctx, pool)
	if err != nil {
		log.Error(ctx, "apply migrations", err)
		os.Exit(1)
	}
	log.Infof(ctx, "migrations applied version=%d", version)
}
