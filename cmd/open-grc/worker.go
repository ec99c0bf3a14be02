package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/open-sspm/open-grc/internal/config"
	"github.com/open-sspm/open-grc/internal/jobs"
	"github.com/open-sspm/open-grc/internal/logging"
	"github.com/open-sspm/open-grc/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued check runs and run scheduled jobs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func runWorker() error {
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

	scheduler := jobs.NewScheduler(jobs.NewAdvisoryLocker(a.pool), logging.WithComponent(a.logger, "scheduler"))
	if syncJob, err := a.employeeSyncJob(); err != nil {
		slog.Warn("employee sync disabled", "err", err)
	} else if err := scheduler.Add(syncJob); err != nil {
		return usageError(err)
	}
	if err := scheduler.Add(a.taskReviewJob()); err != nil {
		return usageError(err)
	}

	var pool *jobs.Pool
	if cfg.RedisURL != "" {
		rdb, err := jobs.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		runner, err := a.checkRunner()
		if err != nil {
			return err
		}
		pool = &jobs.Pool{
			Queue:       jobs.NewRedisQueue(rdb, jobs.DefaultQueueKey, cfg.WorkerID),
			Runner:      runner,
			Concurrency: cfg.CheckRunConcurrency,
			Policy:      retryPolicy(cfg),
			Logger:      logging.WithComponent(a.logger, "pool"),
		}
	} else {
		slog.Warn("REDIS_URL not set; check run queue consumer disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return scheduler.Run(gctx) })
	if pool != nil {
		g.Go(func() error { return pool.Run(gctx) })
	}

	if _, metricsErrCh := metrics.StartServer(gctx, cfg.MetricsAddr); metricsErrCh != nil {
		g.Go(func() error {
			select {
			case err := <-metricsErrCh:
				return err
			case <-gctx.Done():
				return nil
			}
		})
	}

	slog.Info("worker started", "concurrency", cfg.CheckRunConcurrency)
	return g.Wait()
}
