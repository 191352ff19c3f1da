package usecase

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/repository"
)

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*entity.AudioJob

	createErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*entity.AudioJob{}}
}

func (r *fakeJobRepo) Create(ctx context.Context, job *entity.AudioJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	copied := *job
	copied.CreatedAt = time.Now()
	r.jobs[job.ID] = &copied
	return nil
}

func (r *fakeJobRepo) MarkRunning(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = entity.JobStatusRunning
	}
	return nil
}

func (r *fakeJobRepo) Finish(ctx context.Context, id string, result *entity.AutomationResult, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		job = &entity.AudioJob{ID: id}
		r.jobs[id] = job
	}
	if result == nil {
		job.Status = entity.JobStatusFailed
		job.FailureStage = entity.StageAborted
		job.ErrorMessage = errMsg
		return nil
	}
	if result.Success {
		job.Status = entity.JobStatusCompleted
	} else {
		job.Status = entity.JobStatusFailed
	}
	job.FailureStage = result.FailureStage
	job.FilePath = result.DownloadedFile
	job.ElapsedMS = result.Elapsed.Milliseconds()
	job.ErrorMessage = errMsg
	return nil
}

func (r *fakeJobRepo) FindByID(ctx context.Context, id string) (*entity.AudioJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (r *fakeJobRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *fakeJobRepo) get(id string) *entity.AudioJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id]
}

type fakeQueueRepo struct {
	mu      sync.Mutex
	entries []string
}

func (r *fakeQueueRepo) Push(ctx context.Context, entry string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeQueueRepo) Pop(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return "", goredis.Nil
	}
	head := r.entries[0]
	r.entries = r.entries[1:]
	return head, nil
}

func (r *fakeQueueRepo) Size(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.entries)), nil
}

type fakeCacheRepo struct {
	mu     sync.Mutex
	data   map[string]string
	latest string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{data: map[string]string{}}
}

func (r *fakeCacheRepo) Set(ctx context.Context, key, content string, expiry time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = content
	return nil
}

func (r *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.data[key]
	if !ok {
		return "", repository.ErrCacheMiss
	}
	return content, nil
}

func (r *fakeCacheRepo) SetLatest(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = key
	return nil
}

func (r *fakeCacheRepo) GetLatest(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == "" {
		return "", repository.ErrCacheMiss
	}
	content, ok := r.data[r.latest]
	if !ok {
		return "", repository.ErrCacheMiss
	}
	return content, nil
}

func (r *fakeCacheRepo) drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
}

type fakeAutomationRepo struct {
	mu       sync.Mutex
	runCalls int
	lastReq  entity.AutomationRequest

	result *entity.AutomationResult
	err    error
}

func (r *fakeAutomationRepo) Run(ctx context.Context, req entity.AutomationRequest) (*entity.AutomationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runCalls++
	r.lastReq = req
	return r.result, r.err
}

func (r *fakeAutomationRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runCalls
}
