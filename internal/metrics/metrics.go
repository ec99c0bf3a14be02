package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "opengrc"
)

var (
	runDurationBuckets = []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600, 900}
	jobDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800}

	// Check Run Metrics
	CheckRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "check_run_duration_seconds",
		Help:      "Time taken for a connection check run to complete.",
		Buckets:   runDurationBuckets,
	}, []string{"provider_slug"})

	CheckRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_runs_total",
		Help:      "Count of connection check run invocations by outcome.",
	}, []string{"provider_slug", "outcome"})

	CheckResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "check_results_total",
		Help:      "Number of check results persisted.",
	}, []string{"provider_slug", "passed"})

	// Job Metrics
	JobAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_attempts_total",
		Help:      "Count of background job attempts by status.",
	}, []string{"job", "status"})

	JobRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_retries_total",
		Help:      "Count of background job retries scheduled.",
	}, []string{"job"})

	ScheduledJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scheduled_job_duration_seconds",
		Help:      "Time taken for a scheduled job invocation.",
		Buckets:   jobDurationBuckets,
	}, []string{"job"})

	ScheduledJobSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduled_job_skipped_total",
		Help:      "Count of scheduled job invocations skipped because another replica held the lock.",
	}, []string{"job"})

	// Employee Sync Metrics
	EmployeeSyncDispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "employee_sync_dispatches_total",
		Help:      "Count of per-organization employee sync dispatches.",
	}, []string{"provider", "status"})

	// Policy Migration Metrics
	PolicyVersionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_versions_created_total",
		Help:      "Number of policy versions created by the backfill.",
	})

	PolicyMigrationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_migration_failures_total",
		Help:      "Number of organizations whose policy backfill failed.",
	})

	// Task Review Metrics
	TasksReopenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_reopened_total",
		Help:      "Number of tasks moved back to todo after their review date passed.",
	})
)
