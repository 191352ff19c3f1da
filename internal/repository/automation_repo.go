package repository

import (
	"context"
	"errors"

	"github.com/user/audioflow-service/internal/entity"
)

// Failure taxonomy for an automation run. The usecase classifies run errors
// with errors.Is against these sentinels; each maps to an entity.FailureStage.
var (
	ErrBrowserLaunch  = errors.New("browser could not be launched")
	ErrAuthentication = errors.New("login sequence did not complete")
	ErrUpload         = errors.New("content upload failed")
	ErrTrigger        = errors.New("audio generation trigger failed")
	ErrQuotaExceeded  = errors.New("daily audio overview limit reached")
	ErrPollingTimeout = errors.New("wait budget exhausted before download")
	ErrDownload       = errors.New("no download path succeeded")
	ErrPageClosed     = errors.New("page became unreachable mid-flow")
)

// AutomationRepository defines the contract for the browser automation flow.
// Run drives one full session: navigate, optional login, upload, trigger,
// poll, download. The returned result is non-nil whenever the flow got far
// enough to produce one, even on failure, so partial progress is visible.
type AutomationRepository interface {
	Run(ctx context.Context, req entity.AutomationRequest) (*entity.AutomationResult, error)
}
