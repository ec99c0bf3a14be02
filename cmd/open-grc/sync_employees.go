package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/open-sspm/open-grc/internal/config"
	"github.com/open-sspm/open-grc/internal/jobs"
	"github.com/spf13/cobra"
)

var syncEmployeesCmd = &cobra.Command{
	Use:   "sync-employees",
	Short: "Dispatch the employee sync for every organization once.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSyncEmployees()
	},
}

func runSyncEmployees() error {
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

	job, err := a.employeeSyncJob()
	if err != nil {
		return usageError(err)
	}

	// Take the same lock as the worker so a manual run never overlaps a
	// scheduled one.
	scheduler := jobs.NewScheduler(jobs.NewAdvisoryLocker(a.pool), a.logger)
	return scheduler.RunJob(ctx, job)
}
