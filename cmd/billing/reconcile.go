package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/staffpulse/billing/pkg/logger"
)

func reconcileCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Cancel checkout rows that were never completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log, _, err := newLogger()
			if err != nil {
				return err
			}
			pool, _, err := connectPostgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc, err := newBillingService(pool, log, nil, nil)
			if err != nil {
				return err
			}

			n, err := svc.ExpirePendingCheckouts(ctx, olderThan)
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "expired pending checkouts",
				logger.Component("reconcile"),
				logger.Duration(olderThan),
				"count", n,
			)
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %d pending checkout(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 72*time.Hour, "cancel pending stripe checkouts created before now minus this")
	return cmd
}
