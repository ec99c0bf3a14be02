package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 50

	dequeueTimeout    = 5 * time.Second
	dequeueErrorDelay = time.Second
	requeueTimeout    = 5 * time.Second
	ackTimeout        = 5 * time.Second
)

// recoverer is implemented by queues that can return jobs reserved by an
// earlier run of this consumer.
type recoverer interface {
	Recover(ctx context.Context) (int, error)
}

// Pool consumes check run jobs from a queue with bounded concurrency.
type Pool struct {
	Queue       Queue
	Runner      CheckRunner
	Concurrency int
	Policy      RetryPolicy
	Logger      *slog.Logger
}

// Run processes jobs until ctx is cancelled, then waits for in-flight jobs.
func (p *Pool) Run(ctx context.Context) error {
	if p == nil || p.Queue == nil || p.Runner == nil {
		return errors.New("job pool is not configured")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := p.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	if r, ok := p.Queue.(recoverer); ok {
		n, err := r.Recover(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Warn("requeued unacknowledged check run jobs", "count", n)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	logger.Info("check run pool started", "concurrency", concurrency)

	for gctx.Err() == nil {
		job, err := p.Queue.Dequeue(gctx, dequeueTimeout)
		if errors.Is(err, ErrQueueEmpty) {
			continue
		}
		if err != nil {
			if gctx.Err() != nil {
				break
			}
			logger.Error("dequeue failed", "err", err)
			_ = sleepWithContext(gctx, dequeueErrorDelay)
			continue
		}

		// Go blocks while the pool is full.
		g.Go(func() error {
			if gctx.Err() != nil {
				p.requeue(job, logger)
				return nil
			}
			p.process(gctx, job, logger)
			p.ack(job, logger)
			return nil
		})
	}

	err := g.Wait()
	logger.Info("check run pool stopped")
	return err
}

func (p *Pool) process(ctx context.Context, job CheckRunJob, logger *slog.Logger) {
	logger = logger.With("job_id", job.ID, "connection_id", job.Request.ConnectionID)
	logger.Info("check run job started", "queued_for", time.Since(job.EnqueuedAt).Round(time.Millisecond))

	res, err := RunWithRetry(ctx, p.Runner, job.Request, p.Policy, logger)
	switch {
	case err != nil:
		logger.Error("check run job failed", "err", err)
	case !res.Success:
		logger.Warn("check run job finished with failure", "error", res.Error, "run_id", res.RunID)
	default:
		logger.Info("check run job finished", "run_id", res.RunID, "reason", res.Reason)
	}
}

// requeue returns a job the pool will not run. The reserved copy is only
// acknowledged once the new copy is queued.
func (p *Pool) requeue(job CheckRunJob, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), requeueTimeout)
	defer cancel()
	if _, err := p.Queue.Enqueue(ctx, job); err != nil {
		logger.Error("requeue check run job failed", "job_id", job.ID, "err", err)
		return
	}
	p.ack(job, logger)
}

func (p *Pool) ack(job CheckRunJob, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()
	if err := p.Queue.Ack(ctx, job); err != nil {
		logger.Error("ack check run job failed", "job_id", job.ID, "err", err)
	}
}
