package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/alarm"
	"github.com/gmsas95/dosekeeper-cli/internal/api"
	"github.com/gmsas95/dosekeeper-cli/internal/config"
	"github.com/gmsas95/dosekeeper-cli/internal/cron"
	"github.com/gmsas95/dosekeeper-cli/internal/notify"
	"github.com/gmsas95/dosekeeper-cli/internal/schedule"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"go.uber.org/zap"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Repo     *store.Repository
	Alarms   *alarm.CronService
	Sync     *alarm.Synchronizer
	Service  *service.Service
	Hub      *notify.Hub
	Notifier *notify.Multi
	Version  string
}

// New opens the configured store and wires the services on top of it
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, version string) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	kv, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}
	repo := store.New(kv, logger.Named("store"))

	hub := notify.NewHub()
	notifier := notify.NewMulti(logger.Named("notify"), notify.NewLogSink(logger.Named("alarm")), hub)
	if cmd := notify.NewCommandSink(cfg.Notify.Command, cfg.Notify.BreakerFailures, logger.Named("notify")); cmd != nil {
		interval := time.Duration(cfg.Notify.MinIntervalSeconds) * time.Second
		notifier.Add(notify.NewLimited(cmd, interval, 3))
	}

	alarms := alarm.NewCronService(notifier, cfg.Alarms.Enabled, logger.Named("alarm"))
	sync := alarm.NewSynchronizer(alarms, alarm.Channel{
		ID:         cfg.Alarms.ChannelID,
		Name:       cfg.Alarms.ChannelName,
		Importance: "high",
	}, logger.Named("alarm"))

	svc := service.New(repo, sync, logger.Named("service"), service.Options{
		LowStockThreshold: cfg.Stats.LowStockThreshold,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Repo:     repo,
		Alarms:   alarms,
		Sync:     sync,
		Service:  svc,
		Hub:      hub,
		Notifier: notifier,
		Version:  version,
	}, nil
}

// Close releases the store
func (app *App) Close() error {
	app.Alarms.Stop()
	return app.Repo.Close()
}

// NewRunner builds the refresh runner for the configured store
func (app *App) NewRunner() *cron.Runner {
	cfg := cron.Config{
		Interval: time.Duration(app.Config.Refresh.IntervalSeconds) * time.Second,
	}
	if app.Config.Refresh.Watch && app.Config.Storage.Backend == "file" {
		cfg.WatchPath = app.Config.Storage.FilePath
	} else {
		cfg.ResyncOnTick = app.Config.Refresh.Watch
	}

	runner := cron.NewRunner(cfg, app.Service, app.Logger.Named("refresh"))
	runner.OnRefresh(func(doses []schedule.Dose) {
		app.Logger.Debug("Due doses", zap.Int("count", len(doses)))
	})
	return runner
}

// RunServer fires alarms, refreshes doses and serves the API until ctx is
// cancelled or the process is signalled
func (app *App) RunServer(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Sync.Initialize(ctx); err != nil {
		app.Logger.Warn("Alarms are not available", zap.String("reason", service.UserMessage(err)), zap.Error(err))
	}
	app.Alarms.Start()

	runner := app.NewRunner()
	if err := runner.Start(); err != nil {
		return fmt.Errorf("failed to start refresh runner: %w", err)
	}
	defer runner.Stop()

	api.Version = app.Version
	server := api.New(app.Config, app.Service, app.Hub, app.Logger.Named("api"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	app.Logger.Info("Server started",
		zap.String("address", app.Config.Server.Address),
		zap.Int("port", app.Config.Server.Port),
		zap.String("url", fmt.Sprintf("http://%s", app.Config.Addr())),
		zap.String("store", app.Config.Storage.Backend),
		zap.Int("alarms", len(app.Alarms.Keys(""))),
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down...")
	if err := server.Shutdown(); err != nil {
		app.Logger.Error("Server shutdown error", zap.Error(err))
	}
	return nil
}

// NewLogger builds the process logger: development output on the console,
// production JSON when format is json
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
