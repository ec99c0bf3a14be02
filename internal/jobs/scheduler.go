package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/open-sspm/open-grc/internal/metrics"
	"github.com/robfig/cron/v3"
)

// ScheduledJob is a named unit of work run on a cron schedule in UTC.
type ScheduledJob struct {
	Name        string
	Schedule    string
	MaxDuration time.Duration
	Run         func(ctx context.Context) error
}

// Scheduler fires scheduled jobs. Each invocation holds the job's lock so a
// fleet of replicas runs it once.
type Scheduler struct {
	cron   *cron.Cron
	locker Locker
	logger *slog.Logger
	jobs   []ScheduledJob
	ctx    context.Context
}

func NewScheduler(locker Locker, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		locker: locker,
		logger: logger,
		ctx:    context.Background(),
	}
}

// Add registers job. It must be called before Run.
func (s *Scheduler) Add(job ScheduledJob) error {
	job.Name = strings.TrimSpace(job.Name)
	if job.Name == "" {
		return errors.New("scheduled job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("scheduled job %s: run func is required", job.Name)
	}
	if _, err := cron.ParseStandard(job.Schedule); err != nil {
		return fmt.Errorf("scheduled job %s: invalid schedule %q: %w", job.Name, job.Schedule, err)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Run starts the cron loop and blocks until ctx is done and running jobs
// have returned.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	for _, job := range s.jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() {
			if err := s.RunJob(s.ctx, job); err != nil && !errors.Is(err, ErrJobAlreadyRunning) {
				s.logger.Error("scheduled job failed", "job", job.Name, "err", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		s.logger.Info("scheduled job registered", "job", job.Name, "schedule", job.Schedule)
	}

	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// RunJob runs one invocation of job under its lock and max duration.
func (s *Scheduler) RunJob(ctx context.Context, job ScheduledJob) error {
	run := func(ctx context.Context) error {
		if job.MaxDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, job.MaxDuration)
			defer cancel()
		}
		start := time.Now()
		err := job.Run(ctx)
		metrics.ScheduledJobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
		return err
	}

	var err error
	if s.locker != nil {
		err = s.locker.WithLock(ctx, job.Name, run)
	} else {
		err = run(ctx)
	}

	switch {
	case errors.Is(err, ErrJobAlreadyRunning):
		metrics.ScheduledJobSkippedTotal.WithLabelValues(job.Name).Inc()
		metrics.JobAttemptsTotal.WithLabelValues(job.Name, "skipped").Inc()
		s.logger.Info("scheduled job skipped; lock held elsewhere", "job", job.Name)
	case err != nil:
		metrics.JobAttemptsTotal.WithLabelValues(job.Name, "error").Inc()
	default:
		metrics.JobAttemptsTotal.WithLabelValues(job.Name, "success").Inc()
	}
	return err
}
