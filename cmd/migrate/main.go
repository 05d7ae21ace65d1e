package main

import (
	"context"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.Component(logging.New(cfg.LogLevel, cfg.LogPretty), "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.OptionsFromConfig(cfg, logging.Component(logger, "db")))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	version, err := migrate.Apply(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	logger.Info().Uint("version", version).Msg("migrations applied")
}
