package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeLocker struct {
	held  bool
	names []string
}

func (l *fakeLocker) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	l.names = append(l.names, name)
	if l.held {
		return ErrJobAlreadyRunning
	}
	return fn(ctx)
}

func TestScheduler_RunJobUsesLockAndDeadline(t *testing.T) {
	t.Parallel()

	locker := &fakeLocker{}
	s := NewScheduler(locker, discardLogger())

	var sawDeadline bool
	job := ScheduledJob{
		Name:        "employee-sync",
		Schedule:    "0 7 * * *",
		MaxDuration: time.Minute,
		Run: func(ctx context.Context) error {
			_, sawDeadline = ctx.Deadline()
			return nil
		},
	}
	if err := s.RunJob(context.Background(), job); err != nil {
		t.Fatalf("RunJob() error = %v", err)
	}
	if !sawDeadline {
		t.Fatal("expected job context to carry a deadline")
	}
	if len(locker.names) != 1 || locker.names[0] != "employee-sync" {
		t.Fatalf("lock names = %v", locker.names)
	}
}

func TestScheduler_RunJobSkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	s := NewScheduler(&fakeLocker{held: true}, discardLogger())
	ran := false
	err := s.RunJob(context.Background(), ScheduledJob{Name: "task-review", Run: func(context.Context) error {
		ran = true
		return nil
	}})
	if !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("RunJob() error = %v, want ErrJobAlreadyRunning", err)
	}
	if ran {
		t.Fatal("job ran while lock was held")
	}
}

func TestScheduler_AddValidates(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, discardLogger())
	noop := func(context.Context) error { return nil }

	if err := s.Add(ScheduledJob{Name: "a", Schedule: "0 */12 * * *", Run: noop}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add(ScheduledJob{Name: "b", Schedule: "every tuesday", Run: noop}); err == nil {
		t.Fatal("expected invalid schedule error")
	}
	if err := s.Add(ScheduledJob{Schedule: "0 7 * * *", Run: noop}); err == nil {
		t.Fatal("expected missing name error")
	}
	if err := s.Add(ScheduledJob{Name: "c", Schedule: "0 7 * * *"}); err == nil {
		t.Fatal("expected missing run func error")
	}
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, discardLogger())
	if err := s.Add(ScheduledJob{Name: "a", Schedule: "0 7 * * *", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestLockKeyStable(t *testing.T) {
	t.Parallel()

	if LockKey("employee-sync") != LockKey("employee-sync") {
		t.Fatal("LockKey is not deterministic")
	}
	if LockKey("employee-sync") == LockKey("task-review") {
		t.Fatal("distinct jobs share a lock key")
	}
}
