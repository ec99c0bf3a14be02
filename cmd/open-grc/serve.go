package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/open-sspm/open-grc/internal/cloudsec"
	"github.com/open-sspm/open-grc/internal/config"
	httpapp "github.com/open-sspm/open-grc/internal/http"
	"github.com/open-sspm/open-grc/internal/http/handlers"
	"github.com/open-sspm/open-grc/internal/jobs"
	"github.com/open-sspm/open-grc/internal/logging"
	"github.com/open-sspm/open-grc/internal/metrics"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
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

	h := &handlers.Handlers{
		CloudSec:    cloudsec.NewService(a.q, a.manifests).WithLogger(logging.WithComponent(a.logger, "cloudsec")),
		RetryPolicy: retryPolicy(cfg),
	}
	if cfg.RedisURL != "" {
		rdb, err := jobs.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		h.Queue = jobs.NewRedisQueue(rdb, jobs.DefaultQueueKey, "")
	} else {
		runner, err := a.checkRunner()
		if err != nil {
			return err
		}
		h.Runner = runner
		slog.Warn("REDIS_URL not set; check runs execute inline in the API process")
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapp.NewEchoServer(h, logging.WithComponent(a.logger, "http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-metricsErrCh:
		return err
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
