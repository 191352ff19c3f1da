package entity

import "time"

// AudioJob mirrors the `audio_jobs` PostgreSQL table schema.
type AudioJob struct {
	ID            string
	ContentLength int
	Status        string // "queued", "running", "completed", "failed", "not_found"
	FailureStage  FailureStage
	FilePath      string
	ElapsedMS     int64
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusNotFound  = "not_found"
)
