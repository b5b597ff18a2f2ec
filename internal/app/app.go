package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/harborline/harbormaster/internal/api"
	"github.com/harborline/harbormaster/internal/config"
	"github.com/harborline/harbormaster/internal/demo"
	"github.com/harborline/harbormaster/internal/logging"
	"github.com/harborline/harbormaster/internal/metrics"
	"github.com/harborline/harbormaster/internal/monitor"
	"github.com/harborline/harbormaster/internal/provider"
	"github.com/harborline/harbormaster/internal/settings"
	"github.com/harborline/harbormaster/internal/ui"
)

// Options configure the console.
type Options struct {
	ConfigPath   string
	SettingsPath string // overrides settings_path from the config file
	APIBind      string // overrides api_bind from the config file
}

// Run boots the console until the operator quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if bind := strings.TrimSpace(opts.APIBind); bind != "" {
		cfg.APIBind = bind
	}
	if path := strings.TrimSpace(opts.SettingsPath); path != "" {
		cfg.SettingsPath = path
	}

	logger, err := logging.New(logging.Options{Path: cfg.LogPath, Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	log := logger.Logger

	store := settings.Open(settings.NewFileStore(cfg.SettingsPath), log)
	defer store.Close()

	factory, err := newFactory(cfg)
	if err != nil {
		return err
	}

	m := metrics.New()
	runner := monitor.NewRunner(store, factory, monitor.RunnerOptions{
		ProbeTimeout:    cfg.ProbeTimeout,
		FeedTimeout:     cfg.FeedTimeout,
		OfflineInterval: cfg.OfflineInterval,
		RestoredNotice:  cfg.RestoredNotice,
		Metrics:         m,
		Logger:          log,
	})

	log.Info().
		Str("api", cfg.APIBind).
		Str("mode", string(store.Mode())).
		Str("forced", string(store.Forced())).
		Msg("console starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	if addr := strings.TrimSpace(cfg.MetricsAddr); addr != "" {
		g.Go(func() error { return serveMetrics(gctx, addr, m, log) })
	}

	uiErr := ui.Run(ui.Options{
		Context:   gctx,
		Settings:  store,
		Store:     runner.State(),
		Providers: factory,
		SyncNow:   runner.SyncNow,
		LogPath:   cfg.LogPath,
		Logger:    log,
	})
	cancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if uiErr != nil {
		return fmt.Errorf("console ui: %w", uiErr)
	}
	log.Info().Msg("console stopped")
	return nil
}

// newFactory builds the provider factory: the live provider talks to the
// back office at cfg.APIBind, the demo provider serves the embedded dataset.
func newFactory(cfg config.Config) (*provider.Factory, error) {
	client, err := api.NewClient(cfg.APIBind)
	if err != nil {
		return nil, fmt.Errorf("init back-office client: %w", err)
	}
	dataset, err := demo.Default()
	if err != nil {
		return nil, fmt.Errorf("load demo dataset: %w", err)
	}
	return provider.NewFactory(client, dataset), nil
}
