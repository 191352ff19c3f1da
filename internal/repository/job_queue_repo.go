package repository

import "context"

// JobQueueRepository defines the interface for a FIFO queue of encoded job
// entries awaiting automation. A single worker drains it so that at most one
// browser session is ever active against the shared profile directory.
type JobQueueRepository interface {
	// Push adds an encoded job entry to the end of the queue.
	Push(ctx context.Context, entry string) error
	// Pop removes and returns an entry from the front of the queue.
	Pop(ctx context.Context) (string, error)
	// Size returns the current number of queued jobs.
	Size(ctx context.Context) (int64, error)
}
