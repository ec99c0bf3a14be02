package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/open-sspm/open-grc/internal/checkrunner"
)

type scriptedRunner struct {
	mu      sync.Mutex
	results []checkrunner.Result
	errs    []error
	calls   int
	seen    []checkrunner.Request
}

func (r *scriptedRunner) Run(_ context.Context, req checkrunner.Request) (checkrunner.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.calls
	r.calls++
	r.seen = append(r.seen, req)
	var res checkrunner.Result
	var err error
	if idx < len(r.results) {
		res = r.results[idx]
	}
	if idx < len(r.errs) {
		err = r.errs[idx]
	}
	return res, err
}

func (r *scriptedRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMax: 2 * time.Millisecond}
}

func TestRunWithRetry_RetriesRetryableResults(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{results: []checkrunner.Result{
		{Error: "bad gateway", Retryable: true},
		{Error: "bad gateway", Retryable: true},
		{Success: true, RunID: "run_1"},
	}}

	res, err := RunWithRetry(context.Background(), runner, checkrunner.Request{ConnectionID: "conn_1"}, fastPolicy(), discardLogger())
	if err != nil {
		t.Fatalf("RunWithRetry() error = %v", err)
	}
	if !res.Success || res.RunID != "run_1" {
		t.Fatalf("RunWithRetry() = %+v", res)
	}
	if runner.calls != 3 {
		t.Fatalf("calls = %d, want 3", runner.calls)
	}
}

func TestRunWithRetry_DoesNotRetryNonRetryableFailure(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{results: []checkrunner.Result{{Error: "run checks: throttled", RunID: "run_1"}}}

	res, err := RunWithRetry(context.Background(), runner, checkrunner.Request{}, fastPolicy(), discardLogger())
	if err != nil {
		t.Fatalf("RunWithRetry() error = %v", err)
	}
	if res.Success || runner.calls != 1 {
		t.Fatalf("RunWithRetry() = %+v after %d calls, want one failed call", res, runner.calls)
	}
}

func TestRunWithRetry_EscapedErrorsRetryUntilExhausted(t *testing.T) {
	t.Parallel()

	boom := errors.New("mark failed: db down")
	runner := &scriptedRunner{errs: []error{boom, boom, boom, boom}}

	_, err := RunWithRetry(context.Background(), runner, checkrunner.Request{}, fastPolicy(), discardLogger())
	if !errors.Is(err, boom) {
		t.Fatalf("RunWithRetry() error = %v, want %v", err, boom)
	}
	if runner.calls != 3 {
		t.Fatalf("calls = %d, want 3", runner.calls)
	}
}

func TestRunWithRetry_CanceledIsNotRetried(t *testing.T) {
	t.Parallel()

	runner := &scriptedRunner{errs: []error{context.Canceled}}
	_, err := RunWithRetry(context.Background(), runner, checkrunner.Request{}, fastPolicy(), discardLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunWithRetry() error = %v, want context.Canceled", err)
	}
	if runner.calls != 1 {
		t.Fatalf("calls = %d, want 1", runner.calls)
	}
}

func TestRunWithRetry_TerminalRunIsNotRetried(t *testing.T) {
	t.Parallel()

	terminal := fmt.Errorf("mark check run run_1 failed: %w", checkrunner.ErrRunNotRunning)
	runner := &scriptedRunner{errs: []error{terminal}}

	_, err := RunWithRetry(context.Background(), runner, checkrunner.Request{ConnectionID: "conn_1"}, fastPolicy(), discardLogger())
	if !errors.Is(err, checkrunner.ErrRunNotRunning) {
		t.Fatalf("RunWithRetry() error = %v, want ErrRunNotRunning", err)
	}
	if runner.calls != 1 {
		t.Fatalf("calls = %d, want 1", runner.calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		failures int
		want     time.Duration
	}{
		{failures: 0, want: 0},
		{failures: 1, want: time.Second},
		{failures: 2, want: 2 * time.Second},
		{failures: 5, want: 16 * time.Second},
		{failures: 6, want: 30 * time.Second},
		{failures: 20, want: 30 * time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(time.Second, tc.failures, 30*time.Second); got != tc.want {
			t.Fatalf("backoffDelay(%d) = %s, want %s", tc.failures, got, tc.want)
		}
	}
}

func TestRetryPolicyNormalized(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 0, BackoffBase: 2 * time.Second, BackoffMax: time.Second}.normalized()
	if p.MaxAttempts != 1 || p.BackoffMax != 2*time.Second {
		t.Fatalf("normalized() = %+v", p)
	}
}
