package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const audioJobQueueKey = "audioflow:jobs:queue"

// JobQueueRepoImpl provides a concrete implementation for the
// JobQueueRepository interface using Redis Lists.
type JobQueueRepoImpl struct {
	client *redis.Client
}

// NewJobQueueRepo creates a new instance of JobQueueRepoImpl.
func NewJobQueueRepo(client *redis.Client) *JobQueueRepoImpl {
	return &JobQueueRepoImpl{client: client}
}

// Push adds an encoded job entry to the left side of the Redis list (acting
// as a queue).
func (r *JobQueueRepoImpl) Push(ctx context.Context, entry string) error {
	return r.client.LPush(ctx, audioJobQueueKey, entry).Err()
}

// Pop removes and returns an entry from the right side of the Redis list.
// It returns redis.Nil as the error when the queue is empty.
func (r *JobQueueRepoImpl) Pop(ctx context.Context) (string, error) {
	return r.client.RPop(ctx, audioJobQueueKey).Result()
}

// Size returns the current number of queued jobs.
func (r *JobQueueRepoImpl) Size(ctx context.Context) (int64, error) {
	return r.client.LLen(ctx, audioJobQueueKey).Result()
}
