package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/EgorLis/tgfarm/internal/config"
	"github.com/EgorLis/tgfarm/internal/logutil"
	"github.com/EgorLis/tgfarm/internal/scheduler"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	logSource  bool
}

func Execute() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode: 2 — транспорт умер (супервизор может перезапустить), 1 — прочие ошибки.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, scheduler.ErrFatal):
		return 2
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "tgfarm",
		Short:         "Chat game trainer bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "conf/tgfarm.yaml", "Config file path (created with defaults if missing).")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Logging level: debug|info|warn|error (overrides config).")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Logging format: text|json (overrides config).")
	cmd.PersistentFlags().BoolVar(&opts.logSource, "log-add-source", false, "Include source file:line in logs.")

	cmd.AddCommand(newTrainCmd("farm", "Farm monsters and dungeons", opts))
	cmd.AddCommand(newTrainCmd("run", "Run the core fight loop only", opts))
	cmd.AddCommand(newStatsCmd(opts))
	return cmd
}

// loadConfig: файл → окружение → флаги.
func loadConfig(opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Logging.Format = opts.logFormat
	}
	return cfg, nil
}

func loggerConfig(cfg config.Config, opts *rootOptions) logutil.Config {
	return logutil.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: opts.logSource,
		Debug:     cfg.Debug,
	}
}
