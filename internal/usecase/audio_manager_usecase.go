package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/repository"
	"github.com/user/audioflow-service/pkg/metrics"
	"github.com/user/audioflow-service/pkg/utils"
)

var (
	ErrContentTooShort = errors.New("content is below the minimum length for audio generation")
	ErrNoCachedContent = errors.New("no cached content available to replay")
)

const contentCacheExpiry = 48 * time.Hour // 2 days

// SubmitOptions carries the per-request tunables of an automation run.
type SubmitOptions struct {
	DebugMode      bool
	MaxWaitMinutes int
}

// AudioManager defines the interface for submitting audio jobs and checking
// their status.
type AudioManager interface {
	// Submit validates and enqueues content for audio generation, returning
	// the new job's ID. Identical content submitted twice makes two
	// independent jobs; runs are never deduplicated.
	Submit(ctx context.Context, content string, opts SubmitOptions) (string, error)
	// SubmitFromCache replays cached content: the latest entry when key is
	// empty, otherwise the entry stored under key.
	SubmitFromCache(ctx context.Context, key string, opts SubmitOptions) (string, error)
	GetStatus(ctx context.Context, jobID string) (*entity.AudioJob, error)
}

type audioManagerUseCase struct {
	jobRepo         repository.AudioJobRepository
	queueRepo       repository.JobQueueRepository
	cacheRepo       repository.ContentCacheRepository
	minContentChars int
}

// NewAudioManager creates a new AudioManager use case.
func NewAudioManager(
	jobRepo repository.AudioJobRepository,
	queueRepo repository.JobQueueRepository,
	cacheRepo repository.ContentCacheRepository,
	minContentChars int,
) AudioManager {
	return &audioManagerUseCase{
		jobRepo:         jobRepo,
		queueRepo:       queueRepo,
		cacheRepo:       cacheRepo,
		minContentChars: minContentChars,
	}
}

func (uc *audioManagerUseCase) Submit(ctx context.Context, content string, opts SubmitOptions) (string, error) {
	content = strings.TrimSpace(content)
	// Reject short content before anything touches a queue or a browser.
	if len(content) < uc.minContentChars {
		return "", fmt.Errorf("%w: got %d chars, need at least %d",
			ErrContentTooShort, len(content), uc.minContentChars)
	}

	jobID := uuid.New().String()
	job := &entity.AudioJob{
		ID:            jobID,
		ContentLength: len(content),
		Status:        entity.JobStatusQueued,
	}
	if err := uc.jobRepo.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job record: %w", err)
	}

	// Content travels to the worker through the cache, keyed by job ID.
	if err := uc.cacheRepo.Set(ctx, jobID, content, contentCacheExpiry); err != nil {
		return "", fmt.Errorf("failed to cache content for job %s: %w", jobID, err)
	}
	if err := uc.cacheRepo.SetLatest(ctx, jobID); err != nil {
		// The latest pointer only serves replays; the job itself is intact.
		slog.Warn("Failed to update latest content pointer", "job_id", jobID, "error", err)
	}

	if err := uc.enqueue(ctx, jobID, opts); err != nil {
		return "", err
	}

	// The hash makes repeat submissions of the same content visible in logs;
	// they are still separate jobs.
	slog.Info("Audio job submitted",
		"job_id", jobID,
		"content_chars", len(content),
		"content_sha", utils.HashContent(content)[:12])
	return jobID, nil
}

func (uc *audioManagerUseCase) SubmitFromCache(ctx context.Context, key string, opts SubmitOptions) (string, error) {
	var content string
	var err error
	if key == "" {
		content, err = uc.cacheRepo.GetLatest(ctx)
	} else {
		content, err = uc.cacheRepo.Get(ctx, key)
	}
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return "", ErrNoCachedContent
		}
		return "", fmt.Errorf("failed to read cached content: %w", err)
	}
	return uc.Submit(ctx, content, opts)
}

func (uc *audioManagerUseCase) GetStatus(ctx context.Context, jobID string) (*entity.AudioJob, error) {
	job, err := uc.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return &entity.AudioJob{ID: jobID, Status: entity.JobStatusNotFound}, nil
	}
	return job, nil
}

func (uc *audioManagerUseCase) enqueue(ctx context.Context, jobID string, opts SubmitOptions) error {
	if err := uc.queueRepo.Push(ctx, encodeQueueEntry(jobID, opts)); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", jobID, err)
	}
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		metrics.JobsInQueue.Set(float64(size))
	}
	return nil
}
