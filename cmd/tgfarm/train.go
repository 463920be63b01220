package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EgorLis/tgfarm/internal/config"
	"github.com/EgorLis/tgfarm/internal/gateway"
	"github.com/EgorLis/tgfarm/internal/lockfile"
	"github.com/EgorLis/tgfarm/internal/logutil"
	"github.com/EgorLis/tgfarm/internal/notify"
	"github.com/EgorLis/tgfarm/internal/scheduler"
	"github.com/EgorLis/tgfarm/internal/stats"
	"github.com/EgorLis/tgfarm/internal/trainer"
)

func newTrainCmd(mode, short string, opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("limit") {
				cfg.ExecutionLimit = time.Duration(limit) * time.Minute
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			log, err := logutil.New(loggerConfig(cfg, opts))
			if err != nil {
				return err
			}
			return train(cmd.Context(), trainer.Mode(mode), cfg, log)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Execution limit in minutes (0 = infinite).")
	return cmd
}

func train(parent context.Context, mode trainer.Mode, cfg config.Config, log *slog.Logger) error {
	lock, err := lockfile.Acquire(cfg.LockFile)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	flags := scheduler.NewFlags()

	// Ctrl+C (или отмена parent) → запрос выхода; цикл сам прервёт текущий кулдаун
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go watchInterrupt(sigCtx, flags)

	collector := stats.NewCollector()
	var store *stats.Store
	if cfg.Stats.DBPath != "" {
		store, err = stats.Open(cfg.Stats.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	hub, err := notify.FromConfig(cfg.Notifications, log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	client := gateway.New(gateway.Config{
		URL:            cfg.Gateway.URL,
		Token:          cfg.Gateway.Token,
		Retries:        cfg.Gateway.Retries,
		RetryDelay:     cfg.Gateway.RetryDelay,
		RequestTimeout: cfg.Gateway.RequestTimeout,
	}, log)
	client.OnConnecting = func() { log.Info("connecting...", "url", cfg.Gateway.URL) }
	client.OnConnected = func() { log.Info("connected") }
	client.OnError = func(err error) { log.Warn("gateway", "err", err) }
	client.OnFatal = func(err error) {
		log.Error("gateway gave up", "err", err)
		flags.Fail(err)
	}

	trn, err := trainer.New(trainer.Options{
		Mode:      mode,
		Config:    cfg,
		Transport: client,
		Flags:     flags,
		Stats:     collector,
		Notifier:  hub,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	client.OnUpdate = trn.OnUpdate

	// сессия живёт до конца Run: остановка идёт только через flags, чтобы
	// причина выхода была одна и ответ на !exit успел уйти
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("%w: connect gateway: %w", scheduler.ErrFatal, err)
	}
	defer client.Disconnect()

	var runID string
	if store != nil {
		if runID, err = store.StartRun(ctx, string(mode)); err != nil {
			log.Warn("stats run record", "err", err)
		}
	}

	reporter := &stats.Reporter{
		Collector: collector,
		Store:     store,
		RunID:     runID,
		Cron:      cfg.Stats.ReportCron,
		Logger:    log,
	}
	repCtx, stopReporter := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reporter.Run(repCtx); err != nil {
			log.Warn("stats reporter", "err", err)
		}
	}()

	runErr := trn.Run(ctx)

	stopReporter()
	wg.Wait()

	if store != nil && runID != "" {
		if err := store.FinishRun(context.WithoutCancel(ctx), runID, flags.Reason(), flags.Err()); err != nil {
			log.Warn("stats run record", "err", err)
		}
	}
	if runErr != nil && !errors.Is(runErr, scheduler.ErrFatal) {
		return fmt.Errorf("%s: %w", mode, runErr)
	}
	return runErr
}

func watchInterrupt(ctx context.Context, flags *scheduler.Flags) {
	select {
	case <-ctx.Done():
		flags.RequestExit("interrupt")
	case <-flags.Done():
	}
}
