package main

import (
	"github.com/spf13/cobra"

	"github.com/staffpulse/billing/migrations"
	"github.com/staffpulse/billing/pkg/pg"
)

func migrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log, _, err := newLogger()
			if err != nil {
				return err
			}
			pool, cfg, err := connectPostgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if status {
				return pg.MigrationStatus(ctx, pool, migrations.FS, ".", cfg, log)
			}
			return pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log)
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print migration status instead of migrating")
	return cmd
}
