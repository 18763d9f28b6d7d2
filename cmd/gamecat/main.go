package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gamecat/internal/load"
	"gamecat/internal/pipeline"
	"gamecat/pkg/config"
	"gamecat/pkg/loader"
	"gamecat/pkg/logger"
	"gamecat/pkg/metrics"
)

var configFile string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gamecat",
		Short:         "Reconcile game catalog extracts into master tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env.local overrides .env; both are optional
			for _, f := range []string{".env.local", ".env"} {
				_ = godotenv.Load(f)
			}
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a config file (yaml, json or toml)")

	root.AddCommand(newBuildCmd(), newLoadCmd(), newInspectCmd())
	return root
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build per-source and master tables from the raw extracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer l.Sync()

			svc, err := pipeline.NewService(cfg, l)
			if err != nil {
				l.Error("invalid pipeline setup", err)
				return err
			}

			report, err := svc.Run(cmd.Context())
			if err != nil {
				l.Error("build failed", err)
				return err
			}

			if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
				l.Warn("metrics push failed", zap.Error(err))
			}
			l.Info("build complete", zap.String("run_id", report.RunID), zap.String("clean_dir", cfg.Paths.CleanDir))
			return nil
		},
	}
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the master tables into PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer l.Sync()

			if err := cfg.ValidateLoad(); err != nil {
				l.Error("invalid loader configuration", err)
				return err
			}

			ctx := cmd.Context()
			store, err := loader.NewPGStore(ctx, loader.PostgresConfig{
				URI:             cfg.Postgres.URI,
				MinConns:        int32(cfg.Postgres.MinConns),
				MaxConns:        int32(cfg.Postgres.MaxConns),
				MaxConnLifetime: cfg.Postgres.MaxConnLifetime,
				ConnectAttempts: cfg.Postgres.ConnectAttempts,
			}, l)
			if err != nil {
				l.Error("failed to connect to postgres", err)
				return err
			}
			defer store.Close()

			report, err := load.NewService(cfg.Paths.CleanDir, cfg.Paths.ExternalDir, store, l).Run(ctx)
			if err != nil {
				l.Error("load failed", err)
				return err
			}

			if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
				l.Warn("metrics push failed", zap.Error(err))
			}
			l.Info("load complete", zap.Stringer("report", report))
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Profile the raw extracts without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l, err := setup()
			if err != nil {
				return err
			}
			defer l.Sync()

			svc, err := pipeline.NewService(cfg, l)
			if err != nil {
				l.Error("invalid pipeline setup", err)
				return err
			}

			profiles, err := svc.Inspect(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profiles)
		},
	}
}

// setup loads configuration and builds the logger shared by every command
func setup() (*config.AppConfig, *logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return nil, nil, err
	}

	l, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return nil, nil, err
	}
	return cfg, l, nil
}
