package jobs

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/open-sspm/open-grc/internal/db/gen"
)

// ErrJobAlreadyRunning is returned when another replica holds the job lock.
var ErrJobAlreadyRunning = errors.New("job already running")

// Locker runs fn while holding an exclusive lock named name.
type Locker interface {
	WithLock(ctx context.Context, name string, fn func(context.Context) error) error
}

// LockKey derives the advisory lock key for a job name.
func LockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("job"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

// AdvisoryLocker uses Postgres session advisory locks so only one replica
// runs a given job at a time. It never waits for the lock.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

func (l *AdvisoryLocker) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	if l == nil || l.pool == nil {
		return errors.New("advisory locker is not configured")
	}

	lockConn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	lockQ := gen.New(lockConn)
	key := LockKey(name)

	locked := false
	defer func() {
		if locked {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = lockQ.ReleaseAdvisoryLock(unlockCtx, key)
		}
		lockConn.Release()
	}()

	ok, err := lockQ.TryAcquireAdvisoryLock(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrJobAlreadyRunning
	}
	locked = true
	return fn(ctx)
}
