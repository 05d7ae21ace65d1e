package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.Component(logging.New(cfg.LogLevel, cfg.LogPretty), "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.OptionsFromConfig(cfg, logging.Component(logger, "db")))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}

	logger.Info().Msg("seed applied")
}
