// Package taskreview moves completed tasks back to todo once their review
// date has passed.
package taskreview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/metrics"
)

const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

type Store interface {
	ListTasksDueForReview(ctx context.Context, now pgtype.Timestamptz) ([]gen.Task, error)
	ReopenTaskForReview(ctx context.Context, arg gen.ReopenTaskForReviewParams) (int64, error)
}

type Summary struct {
	Due      int
	Reopened int
	Failed   int
}

type Job struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{store: store, logger: logger, now: time.Now}
}

func (j *Job) Run(ctx context.Context) (Summary, error) {
	now := j.now().UTC()
	tasks, err := j.store.ListTasksDueForReview(ctx, pgtype.Timestamptz{Time: now, Valid: true})
	if err != nil {
		return Summary{}, fmt.Errorf("list tasks due for review: %w", err)
	}

	summary := Summary{Due: len(tasks)}
	var errs []error
	for _, task := range tasks {
		next := task.ReviewDate
		if next.Valid {
			next.Time = NextReviewDate(next.Time, task.Frequency.String)
		}

		n, err := j.store.ReopenTaskForReview(ctx, gen.ReopenTaskForReviewParams{
			ReviewDate: next,
			ID:         task.ID,
		})
		if err != nil {
			summary.Failed++
			errs = append(errs, fmt.Errorf("reopen task %s: %w", task.ID, err))
			j.logger.Error("reopen task failed", "task_id", task.ID, "organization_id", task.OrganizationID, "err", err)
			continue
		}
		if n == 0 {
			// Already moved out of done by someone else.
			continue
		}
		summary.Reopened++
	}

	metrics.TasksReopenedTotal.Add(float64(summary.Reopened))
	j.logger.Info("task review finished", "due", summary.Due, "reopened", summary.Reopened, "failed", summary.Failed)
	return summary, errors.Join(errs...)
}

// NextReviewDate advances t by the task frequency. Unknown or empty
// frequencies leave t unchanged.
func NextReviewDate(t time.Time, frequency string) time.Time {
	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(0, 12, 0)
	default:
		return t
	}
}
