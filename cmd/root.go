package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/Msaabiam/Global-Bus/config"
	"github.com/Msaabiam/Global-Bus/internal/app"
	"github.com/Msaabiam/Global-Bus/internal/tracing"
	"github.com/Msaabiam/Global-Bus/pkg/logger"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "globalbus",
		Short:         "Global Bus shared-session server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config/config.yaml)")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		logger.Init(logger.Config{
			Env:       logger.ParseEnv(cfg.Logging.Env),
			Service:   cfg.Logging.Service,
			Version:   cfg.Logging.Version,
			Backend:   logger.Backend(cfg.Logging.Backend),
			AddSource: cfg.Logging.AddSource,
			Debug:     cfg.Logging.Debug,
		})
		return cfg, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run HTTP, websocket and gRPC health servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			slog.Info("starting global-bus",
				"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

			shutdownTracing := tracing.Setup(cfg.Logging.Tracing)
			defer func() { _ = shutdownTracing(context.Background()) }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply storage migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := app.OpenStore(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			slog.Info("migrations applied", "storage", cfg.Storage.Driver)
			return store.Close()
		},
	})

	return root
}
