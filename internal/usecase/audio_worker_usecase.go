package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/semaphore"

	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/repository"
	"github.com/user/audioflow-service/pkg/metrics"
)

// AudioWorker defines the interface for the queue-draining automation worker.
type AudioWorker interface {
	// ProcessJobFromQueue pops one job and runs the automation flow for it.
	// An empty queue is a normal state and returns nil.
	ProcessJobFromQueue(ctx context.Context) error
}

type audioWorkerUseCase struct {
	queueRepo      repository.JobQueueRepository
	jobRepo        repository.AudioJobRepository
	cacheRepo      repository.ContentCacheRepository
	automationRepo repository.AutomationRepository

	// A browser profile directory tolerates exactly one live session; a
	// second concurrent run would corrupt or deadlock on the profile lock.
	// The weighted-1 semaphore makes that invariant hold even if multiple
	// worker loops are ever started.
	runSlot *semaphore.Weighted

	runTimeout time.Duration
}

// NewAudioWorker creates a new instance of the automation worker use case.
func NewAudioWorker(
	queueRepo repository.JobQueueRepository,
	jobRepo repository.AudioJobRepository,
	cacheRepo repository.ContentCacheRepository,
	automationRepo repository.AutomationRepository,
	runTimeout time.Duration,
) AudioWorker {
	return &audioWorkerUseCase{
		queueRepo:      queueRepo,
		jobRepo:        jobRepo,
		cacheRepo:      cacheRepo,
		automationRepo: automationRepo,
		runSlot:        semaphore.NewWeighted(1),
		runTimeout:     runTimeout,
	}
}

// queueEntry is the wire format of one queued job.
type queueEntry struct {
	JobID          string `json:"job_id"`
	DebugMode      bool   `json:"debug_mode,omitempty"`
	MaxWaitMinutes int    `json:"max_wait_minutes,omitempty"`
}

func encodeQueueEntry(jobID string, opts SubmitOptions) string {
	raw, _ := json.Marshal(queueEntry{
		JobID:          jobID,
		DebugMode:      opts.DebugMode,
		MaxWaitMinutes: opts.MaxWaitMinutes,
	})
	return string(raw)
}

func decodeQueueEntry(raw string) (queueEntry, error) {
	var e queueEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return queueEntry{}, err
	}
	if e.JobID == "" {
		return queueEntry{}, errors.New("queue entry has no job ID")
	}
	return e, nil
}

func (uc *audioWorkerUseCase) ProcessJobFromQueue(ctx context.Context) error {
	raw, err := uc.queueRepo.Pop(ctx)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to pop job from queue: %w", err)
	}

	entry, err := decodeQueueEntry(raw)
	if err != nil {
		slog.Error("Discarding malformed queue entry", "entry", raw, "error", err)
		return nil
	}
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		metrics.JobsInQueue.Set(float64(size))
	}

	content, err := uc.cacheRepo.Get(ctx, entry.JobID)
	if err != nil {
		slog.Error("No cached content for job, failing it", "job_id", entry.JobID, "error", err)
		return uc.jobRepo.Finish(ctx, entry.JobID, nil, "cached content expired before the job ran")
	}

	if err := uc.runSlot.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for the automation slot: %w", err)
	}
	defer uc.runSlot.Release(1)

	return uc.runJob(ctx, entry, content)
}

func (uc *audioWorkerUseCase) runJob(ctx context.Context, entry queueEntry, content string) error {
	if err := uc.jobRepo.MarkRunning(ctx, entry.JobID); err != nil {
		slog.Error("Failed to mark job running", "job_id", entry.JobID, "error", err)
	}
	slog.Info("Automation run starting", "job_id", entry.JobID, "content_chars", len(content))

	req := entity.AutomationRequest{
		Content:   content,
		DebugMode: entry.DebugMode,
	}
	if entry.MaxWaitMinutes > 0 {
		req.MaxWait = time.Duration(entry.MaxWaitMinutes) * time.Minute
	}

	// The outer wall-clock timeout is independent of the flow's own polling
	// budget; whichever expires first wins. Cancelling the context tears
	// down the browser process, so a hung run cannot leak it.
	runCtx, cancel := context.WithTimeout(ctx, uc.runTimeout)
	defer cancel()

	startTime := time.Now()
	result, runErr := uc.automationRepo.Run(runCtx, req)
	duration := time.Since(startTime)
	metrics.RunDuration.Observe(duration.Seconds())

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if result != nil && result.Success {
		metrics.RunsTotal.WithLabelValues("success", "").Inc()
		slog.Info("Automation run succeeded",
			"job_id", entry.JobID, "file", result.DownloadedFile, "duration_ms", duration.Milliseconds())
	} else {
		stage := entity.StageAborted
		if result != nil {
			stage = result.FailureStage
		}
		metrics.RunsTotal.WithLabelValues("failure", string(stage)).Inc()
		// An upload that went through still matters: the audio may exist on
		// the target site even though no download was captured.
		uploaded := result != nil && result.Uploaded
		slog.Error("Automation run failed",
			"job_id", entry.JobID, "stage", string(stage), "uploaded", uploaded, "error", runErr)
	}

	// The run outcome must be persisted even when the run context is dead.
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer finishCancel()
	if err := uc.jobRepo.Finish(finishCtx, entry.JobID, result, errMsg); err != nil {
		return fmt.Errorf("failed to persist outcome for job %s: %w", entry.JobID, err)
	}
	return nil
}
