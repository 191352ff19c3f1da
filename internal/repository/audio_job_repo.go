package repository

import (
	"context"

	"github.com/user/audioflow-service/internal/entity"
)

// AudioJobRepository defines the contract for persisting automation job records.
type AudioJobRepository interface {
	// Create inserts a new job in the queued state.
	Create(ctx context.Context, job *entity.AudioJob) error
	// MarkRunning transitions a job to the running state.
	MarkRunning(ctx context.Context, id string) error
	// Finish records the terminal outcome of a job.
	Finish(ctx context.Context, id string, result *entity.AutomationResult, errMsg string) error
	// FindByID returns a job by its ID, or nil if no such job exists.
	FindByID(ctx context.Context, id string) (*entity.AudioJob, error)
}
