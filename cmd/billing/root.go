package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/staffpulse/billing/pkg/config"
	"github.com/staffpulse/billing/pkg/logger"
	"github.com/staffpulse/billing/pkg/pg"
	"github.com/staffpulse/billing/pkg/requestid"
)

func rootCommand() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "billing",
		Short:         "Staff-wellbeing billing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			for _, f := range envFiles {
				if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
					continue
				}
				if err := config.LoadEnv(f); err != nil {
					return err
				}
			}
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load when present")

	root.AddCommand(serveCommand(), migrateCommand(), reconcileCommand())
	return root
}

// newLogger builds the process logger and installs it as the slog default.
func newLogger() (*slog.Logger, logger.Config, error) {
	var cfg logger.Config
	if err := config.Load(&cfg); err != nil {
		return nil, cfg, err
	}
	log, err := logger.NewFromConfig(cfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
	if err != nil {
		return nil, cfg, err
	}
	logger.SetAsDefault(log)
	return log, cfg, nil
}

func connectPostgres(ctx context.Context) (*pgxpool.Pool, pg.Config, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, cfg, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, cfg, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, cfg, nil
}
