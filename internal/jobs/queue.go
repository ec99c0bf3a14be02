// Package jobs runs background work: the queued check run pool and the
// scheduled jobs.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/open-sspm/open-grc/internal/checkrunner"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueKey = "open-grc:check-runs"
	DefaultConsumer = "default"

	jobCheckRun = "check_run"
)

// ErrQueueEmpty is returned by Dequeue when no job arrived before the timeout.
var ErrQueueEmpty = errors.New("queue empty")

// CheckRunJob is a queued request to run a connection's checks.
type CheckRunJob struct {
	ID         string              `json:"id"`
	Request    checkrunner.Request `json:"request"`
	EnqueuedAt time.Time           `json:"enqueuedAt"`

	// payload is the raw queue entry, needed to acknowledge the job.
	payload string
}

// Queue hands check run jobs from the API to workers. Delivery is
// at-least-once: a dequeued job stays reserved until it is acknowledged.
type Queue interface {
	Enqueue(ctx context.Context, job CheckRunJob) (CheckRunJob, error)
	Dequeue(ctx context.Context, timeout time.Duration) (CheckRunJob, error)
	Ack(ctx context.Context, job CheckRunJob) error
}

type listCommands interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) *redis.StringCmd
	LMove(ctx context.Context, source, destination, srcpos, destpos string) *redis.StringCmd
	LRem(ctx context.Context, key string, count int64, value any) *redis.IntCmd
}

// RedisQueue is a FIFO list in Redis. Enqueue pushes on the left; Dequeue
// atomically moves the oldest entry into the consumer's processing list,
// where it stays until Ack. Entries left behind by a crashed or cancelled
// consumer are returned to the queue by Recover.
type RedisQueue struct {
	rdb           listCommands
	key           string
	processingKey string
}

// NewRedisQueue returns a queue on key. consumer names the processing list
// and must be stable across restarts of the same worker.
func NewRedisQueue(rdb listCommands, key, consumer string) *RedisQueue {
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultQueueKey
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		consumer = DefaultConsumer
	}
	return &RedisQueue{rdb: rdb, key: key, processingKey: key + ":processing:" + consumer}
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job CheckRunJob) (CheckRunJob, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return CheckRunJob{}, fmt.Errorf("marshal check run job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, string(payload)).Err(); err != nil {
		return CheckRunJob{}, fmt.Errorf("enqueue check run job: %w", err)
	}
	return job, nil
}

func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (CheckRunJob, error) {
	payload, err := q.rdb.BLMove(ctx, q.key, q.processingKey, "RIGHT", "LEFT", timeout).Result()
	if errors.Is(err, redis.Nil) {
		return CheckRunJob{}, ErrQueueEmpty
	}
	if err != nil {
		return CheckRunJob{}, fmt.Errorf("dequeue check run job: %w", err)
	}

	var job CheckRunJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		// Drop the entry so a malformed payload is not redelivered forever.
		_ = q.rdb.LRem(ctx, q.processingKey, 1, payload).Err()
		return CheckRunJob{}, fmt.Errorf("decode check run job: %w", err)
	}
	job.payload = payload
	return job, nil
}

// Ack removes a dequeued job from the processing list.
func (q *RedisQueue) Ack(ctx context.Context, job CheckRunJob) error {
	if job.payload == "" {
		return errors.New("ack check run job: job was not dequeued from this queue")
	}
	if err := q.rdb.LRem(ctx, q.processingKey, 1, job.payload).Err(); err != nil {
		return fmt.Errorf("ack check run job %s: %w", job.ID, err)
	}
	return nil
}

// Recover moves every entry of the consumer's processing list back to the
// dequeue end of the queue, oldest first, and reports how many were moved.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.rdb.LMove(ctx, q.processingKey, q.key, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("recover check run jobs: %w", err)
		}
		moved++
	}
}
