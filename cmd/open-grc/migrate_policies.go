package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/open-sspm/open-grc/internal/config"
	"github.com/open-sspm/open-grc/internal/logging"
	"github.com/open-sspm/open-grc/internal/policymigration"
	"github.com/spf13/cobra"
)

var migratePoliciesCmd = &cobra.Command{
	Use:   "migrate-policies",
	Short: "Backfill version 1 for every policy without a current version.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigratePolicies()
	},
}

func runMigratePolicies() error {
	cfg, err := config.Load()
	if err != nil {
		return usageError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := logging.WithComponent(a.logger, "policymigration")
	worker := policymigration.NewWorker(
		policymigration.PoolTransactor{Pool: a.pool, Q: a.q},
		cfg.PolicyMigrationPolicyBatch,
		cfg.PolicyMigrationTxTimeout,
		logger,
	)
	driver := policymigration.NewDriver(a.q, worker, cfg.PolicyMigrationOrgBatch, logger)

	_, err = driver.Run(ctx)
	return err
}
