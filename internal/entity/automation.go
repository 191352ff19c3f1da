package entity

import "time"

// FailureStage identifies which step of the automation flow a run died in.
// Partial progress matters to the caller: an upload that succeeded but never
// produced a download means the audio may still exist on the target site.
type FailureStage string

const (
	StageNone           FailureStage = ""
	StageInvalidInput   FailureStage = "invalid_input"
	StageBrowserLaunch  FailureStage = "browser_launch"
	StageAuthentication FailureStage = "authentication"
	StageUpload         FailureStage = "upload"
	StageTrigger        FailureStage = "trigger"
	StageQuotaExceeded  FailureStage = "quota_exceeded"
	StagePollingTimeout FailureStage = "polling_timeout"
	StageDownload       FailureStage = "download"
	StageAborted        FailureStage = "aborted"
)

// AutomationRequest is the input to a single automation run.
type AutomationRequest struct {
	Content   string
	DebugMode bool
	MaxWait   time.Duration
	Email     string
	Password  string
}

// AutomationResult is the outcome of one run. Immutable once returned.
type AutomationResult struct {
	Success        bool
	Uploaded       bool
	DownloadedFile string
	Elapsed        time.Duration
	FailureStage   FailureStage
}
