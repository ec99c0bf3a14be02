package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/open-sspm/open-grc/internal/checkrunner"
	"github.com/open-sspm/open-grc/internal/metrics"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 30 * time.Second
	DefaultMaxDuration = 15 * time.Minute
)

// RetryPolicy controls how a check run invocation is retried.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	MaxDuration time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
		BackoffMax:  DefaultBackoffMax,
		MaxDuration: DefaultMaxDuration,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BackoffBase < 0 {
		p.BackoffBase = 0
	}
	if p.BackoffMax < p.BackoffBase {
		p.BackoffMax = p.BackoffBase
	}
	return p
}

// CheckRunner runs one connection's checks.
type CheckRunner interface {
	Run(ctx context.Context, req checkrunner.Request) (checkrunner.Result, error)
}

// RunWithRetry invokes runner until it succeeds, reports a non-retryable
// result, or the policy's attempts are exhausted. Each attempt is bounded by
// MaxDuration.
func RunWithRetry(ctx context.Context, runner CheckRunner, req checkrunner.Request, policy RetryPolicy, logger *slog.Logger) (checkrunner.Result, error) {
	if runner == nil {
		return checkrunner.Result{}, errors.New("check runner is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	policy = policy.normalized()

	var (
		res checkrunner.Result
		err error
	)
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		res, err = runAttempt(ctx, runner, req, policy.MaxDuration)
		if !shouldRetry(res, err) {
			metrics.JobAttemptsTotal.WithLabelValues(jobCheckRun, "done").Inc()
			return res, err
		}
		metrics.JobAttemptsTotal.WithLabelValues(jobCheckRun, "retryable").Inc()
		if attempt == policy.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := backoffDelay(policy.BackoffBase, attempt, policy.BackoffMax)
		logger.Warn("check run attempt failed; retrying",
			"connection_id", req.ConnectionID,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"err", attemptError(res, err),
		)
		metrics.JobRetriesTotal.WithLabelValues(jobCheckRun).Inc()
		if sleepErr := sleepWithContext(ctx, delay); sleepErr != nil {
			return res, errors.Join(err, sleepErr)
		}
	}

	logger.Error("check run attempts exhausted",
		"connection_id", req.ConnectionID,
		"attempts", policy.MaxAttempts,
		"err", attemptError(res, err),
	)
	return res, err
}

func runAttempt(ctx context.Context, runner CheckRunner, req checkrunner.Request, maxDuration time.Duration) (checkrunner.Result, error) {
	if maxDuration <= 0 {
		return runner.Run(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, maxDuration)
	defer cancel()
	return runner.Run(attemptCtx, req)
}

func shouldRetry(res checkrunner.Result, err error) bool {
	if err != nil {
		// A run that already reached a terminal status must not be started again.
		return !errors.Is(err, context.Canceled) && !errors.Is(err, checkrunner.ErrRunNotRunning)
	}
	return res.Retryable
}

func attemptError(res checkrunner.Result, err error) any {
	if err != nil {
		return err
	}
	return res.Error
}

// backoffDelay doubles base for each prior failure, capped at max.
func backoffDelay(base time.Duration, failures int, max time.Duration) time.Duration {
	if failures <= 0 {
		return 0
	}
	if base <= 0 {
		return 0
	}

	delay := base
	for i := 1; i < failures; i++ {
		if delay > max/2 && max > 0 {
			delay = max
			break
		}
		delay *= 2
	}

	if max > 0 && delay > max {
		return max
	}
	return delay
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
