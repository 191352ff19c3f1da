package response

import "time"

type SubmitAudioResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// AudioJobResponse is a DTO for job status, mirroring entity.AudioJob.
type AudioJobResponse struct {
	JobID         string     `json:"job_id"`
	Status        string     `json:"status"` // "queued", "running", "completed", "failed"
	ContentLength int        `json:"content_length,omitempty"`
	FailureStage  string     `json:"failure_stage,omitempty"`
	FilePath      string     `json:"file_path,omitempty"`
	ElapsedMS     int64      `json:"elapsed_ms,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}
