package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	commonerrors "hotsheet-workers/internal/common/errors"
	"hotsheet-workers/internal/models"
)

// ErrEmpty is returned by a blocking pop that hits its timeout with no job
// available.
var ErrEmpty = errors.New("queue: no job available")

// EmailJobQueue is the Redis-list backed handoff between the matching core
// and the delivery worker. Producers push JSON-encoded jobs with LPUSH;
// the consumer pops oldest-first with BRPOP.
type EmailJobQueue struct {
	client *redis.Client
	key    string
}

// NewEmailJobQueue creates a queue bound to a single Redis list key.
func NewEmailJobQueue(client *redis.Client, key string) *EmailJobQueue {
	return &EmailJobQueue{client: client, key: key}
}

// Enqueue pushes one job onto the queue. A failed push is reported to the
// caller so the batch that produced it can be retried whole.
func (q *EmailJobQueue) Enqueue(ctx context.Context, job *models.EmailJob) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return commonerrors.NewQueueInsertFailedError(err)
	}
	return nil
}

// Dequeue blocks up to timeout for the oldest queued job. Returns ErrEmpty
// on timeout so the consumer loop can poll without treating it as a fault.
func (q *EmailJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.EmailJob, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("pop email job: %w", err)
	}

	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("pop email job: unexpected reply of %d elements", len(res))
	}

	var job models.EmailJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode email job: %w", err)
	}
	return &job, nil
}

// Length reports the number of jobs waiting on the queue.
func (q *EmailJobQueue) Length(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}
