package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/audioflow-service/internal/entity"
)

// AudioJobRepoImpl provides a concrete implementation for the
// AudioJobRepository interface using PostgreSQL.
type AudioJobRepoImpl struct {
	db *pgxpool.Pool
}

// NewAudioJobRepo creates a new instance of AudioJobRepoImpl.
func NewAudioJobRepo(db *pgxpool.Pool) *AudioJobRepoImpl {
	return &AudioJobRepoImpl{db: db}
}

// Create inserts a new job record in the queued state.
func (r *AudioJobRepoImpl) Create(ctx context.Context, job *entity.AudioJob) error {
	query := `
		INSERT INTO audio_jobs (id, content_length, status, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW());
	`
	_, err := r.db.Exec(ctx, query, job.ID, job.ContentLength, entity.JobStatusQueued)
	return err
}

// MarkRunning transitions a job to the running state.
func (r *AudioJobRepoImpl) MarkRunning(ctx context.Context, id string) error {
	query := `UPDATE audio_jobs SET status = $2, updated_at = NOW() WHERE id = $1;`
	_, err := r.db.Exec(ctx, query, id, entity.JobStatusRunning)
	return err
}

// Finish records the terminal outcome of a job. A nil result means the run
// never produced one (for example, the worker's outer timeout fired).
func (r *AudioJobRepoImpl) Finish(ctx context.Context, id string, result *entity.AutomationResult, errMsg string) error {
	status := entity.JobStatusFailed
	stage := entity.StageAborted
	filePath := ""
	var elapsedMS int64
	if result != nil {
		stage = result.FailureStage
		filePath = result.DownloadedFile
		elapsedMS = result.Elapsed.Milliseconds()
		if result.Success {
			status = entity.JobStatusCompleted
		}
	}

	query := `
		UPDATE audio_jobs SET
			status = $2,
			failure_stage = $3,
			file_path = $4,
			elapsed_ms = $5,
			error_message = $6,
			updated_at = NOW()
		WHERE id = $1;
	`
	_, err := r.db.Exec(ctx, query, id, status, string(stage), filePath, elapsedMS, errMsg)
	return err
}

// FindByID returns a job by its ID, or nil when no such job exists.
func (r *AudioJobRepoImpl) FindByID(ctx context.Context, id string) (*entity.AudioJob, error) {
	query := `
		SELECT id, content_length, status, failure_stage, file_path, elapsed_ms, error_message, created_at, updated_at
		FROM audio_jobs
		WHERE id = $1;
	`
	var job entity.AudioJob
	var stage string
	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.ContentLength,
		&job.Status,
		&stage,
		&job.FilePath,
		&job.ElapsedMS,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	job.FailureStage = entity.FailureStage(stage)
	return &job, nil
}
