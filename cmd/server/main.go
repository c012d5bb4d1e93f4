package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Simplici0/costcalc/internal/config"
	"github.com/Simplici0/costcalc/internal/db"
	"github.com/Simplici0/costcalc/internal/logging"
	"github.com/Simplici0/costcalc/internal/migrations"
	"github.com/Simplici0/costcalc/internal/seed"
)

func main() {
	boot := logging.NewStdout("json", "info")

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.NewStdout(cfg.LogFormat, cfg.LogLevel)
	for _, warning := range cfg.Warnings {
		logger.Warn().Msg(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := migrations.Up(database, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to run database migrations")
	}

	stats, err := seed.Run(ctx, database, seed.Config{
		AdminEmail:       cfg.AdminEmail,
		AdminPassword:    cfg.AdminPassword,
		PractitionerName: cfg.PractitionerName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed database")
	}
	logger.Info().Int("inserts", stats.Inserts).Msg("seed complete")

	srv, err := newServer(cfg, logger, database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	if err := srv.serve(ctx); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
