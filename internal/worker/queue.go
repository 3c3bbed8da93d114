package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/itemforge/itemforge-backend/internal/config"
)

// Queue is the Redis list carrying task handoffs from the API process to the
// generation worker. Payloads are tiny; the task row itself is the source of
// truth and is re-read by the worker after claiming.
type Queue struct {
	rdb *redis.Client
}

// NewQueue creates a new Queue.
func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

type taskPayload struct {
	TaskID string `json:"task_id"`
}

// Enqueue pushes a task handoff onto the generation queue.
func (q *Queue) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	raw, err := json.Marshal(taskPayload{TaskID: taskID.String()})
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, config.WorkerKey.GenerationTasksQueue, raw).Err()
}

// Dequeue blocks up to timeout for the next handoff. Returns redis.Nil when
// the queue stayed empty for the whole window.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	item, err := q.rdb.BLPop(ctx, timeout, config.WorkerKey.GenerationTasksQueue).Result()
	if err != nil {
		return uuid.Nil, err
	}
	if len(item) < 2 {
		return uuid.Nil, redis.Nil
	}

	var p taskPayload
	if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(p.TaskID)
}
