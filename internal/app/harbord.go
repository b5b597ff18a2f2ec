package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/harborline/harbormaster/internal/config"
	"github.com/harborline/harbormaster/internal/demo"
	"github.com/harborline/harbormaster/internal/logging"
	"github.com/harborline/harbormaster/internal/metrics"
	"github.com/harborline/harbormaster/internal/server"
	"github.com/harborline/harbormaster/internal/store"
	"github.com/harborline/harbormaster/internal/store/memory"
	"github.com/harborline/harbormaster/internal/store/postgres"
)

// ServerOptions configure harbord.
type ServerOptions struct {
	ConfigPath string
	Listen     string // overrides listen from the config file
	Demo       bool   // serve the demo dataset from memory
}

// Serve runs the back-office API until ctx is cancelled.
func Serve(ctx context.Context, opts ServerOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listen := strings.TrimSpace(opts.Listen); listen != "" {
		cfg.Listen = listen
	}
	if opts.Demo {
		cfg.Demo = true
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Console: true})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logging.Component(logger.Logger, "harbord")

	repo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Warn().Err(err).Msg("close repository")
		}
	}()

	return server.New(repo, metrics.New(), log).Serve(ctx, cfg.Listen)
}

// openRepository picks the in-memory demo store when asked or when no
// database is configured, otherwise connects, migrates and seeds Postgres.
func openRepository(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Repository, error) {
	dataset, err := demo.Default()
	if err != nil {
		return nil, fmt.Errorf("load demo dataset: %w", err)
	}
	dsn := strings.TrimSpace(cfg.DatabaseDSN)
	if cfg.Demo || dsn == "" {
		log.Info().Msg("serving demo dataset from memory")
		return memory.New(dataset), nil
	}

	pg, err := postgres.Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	if err := pg.Seed(ctx, dataset); err != nil {
		_ = pg.Close()
		return nil, err
	}
	log.Info().Msg("connected to postgres")
	return pg, nil
}
