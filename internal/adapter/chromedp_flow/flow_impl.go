package chromedp_flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/repository"
	"github.com/user/audioflow-service/pkg/config"
)

// Flow drives one browser session through the whole audio-overview
// workflow. It assumes at most one concurrent run per profile directory;
// the usecase layer serializes runs before calling it.
type Flow struct {
	cfg config.FlowConfig

	// newDriver is swapped for a fake in tests.
	newDriver func(ctx context.Context, cfg config.FlowConfig) (pageDriver, error)
}

// New creates the automation flow controller backed by chromedp.
func New(cfg config.FlowConfig) repository.AutomationRepository {
	return &Flow{cfg: cfg, newDriver: newChromedpDriver}
}

// Run executes one full automation run: navigate, optional login, upload,
// trigger, poll for completion, capture the download. The browser session
// is released on every exit path; shutdown errors are logged, never
// propagated, so they cannot mask the run outcome.
func (f *Flow) Run(ctx context.Context, req entity.AutomationRequest) (*entity.AutomationResult, error) {
	start := time.Now()
	res := &entity.AutomationResult{}
	fail := func(stage entity.FailureStage, err error) (*entity.AutomationResult, error) {
		res.FailureStage = stage
		res.Elapsed = time.Since(start)
		return res, err
	}

	drv, err := f.newDriver(ctx, f.cfg)
	if err != nil {
		slog.Error("Browser launch failed; check that a Chrome/Chromium runtime is installed and the profile is not locked", "error", err)
		return fail(entity.StageBrowserLaunch, fmt.Errorf("%w: %v", repository.ErrBrowserLaunch, err))
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil {
			slog.Warn("Browser shutdown reported an error", "error", cerr)
		}
	}()

	slog.Info("Automation run started",
		"content_chars", len(req.Content),
		"max_wait", f.budget(req).String(),
		"headless", f.cfg.Headless,
	)

	if err := drv.Navigate(ctx, f.cfg.NavigationURL); err != nil {
		return fail(entity.StageAborted, fmt.Errorf("%w: %v", repository.ErrPageClosed, err))
	}
	f.snapshot(ctx, drv, req, "navigated")

	if err := f.authenticate(ctx, drv, req); err != nil {
		f.snapshot(ctx, drv, req, "login_failed")
		return fail(entity.StageAuthentication, err)
	}

	if err := f.uploadContent(ctx, drv, req); err != nil {
		f.snapshot(ctx, drv, req, "upload_failed")
		return fail(entity.StageUpload, err)
	}
	res.Uploaded = true
	f.snapshot(ctx, drv, req, "uploaded")

	if err := f.triggerGeneration(ctx, drv, req); err != nil {
		f.snapshot(ctx, drv, req, "trigger_failed")
		if isQuotaErr(err) {
			return fail(entity.StageQuotaExceeded, err)
		}
		return fail(entity.StageTrigger, err)
	}
	f.snapshot(ctx, drv, req, "triggered")

	filePath, err := f.waitAndDownload(ctx, drv, req)
	if err != nil {
		f.snapshot(ctx, drv, req, "poll_failed")
		return fail(stageForPollError(err), err)
	}

	res.Success = true
	res.DownloadedFile = filePath
	res.Elapsed = time.Since(start)
	slog.Info("Automation run succeeded", "file", filePath, "elapsed", res.Elapsed.String())
	return res, nil
}

// authenticate runs the Google login sequence when auto-login is enabled,
// credentials are present, and the current page actually is a sign-in page.
// Otherwise the persistent profile's existing session is trusted as-is.
func (f *Flow) authenticate(ctx context.Context, drv pageDriver, req entity.AutomationRequest) error {
	if !f.cfg.AutoLogin {
		slog.Info("Auto-login disabled, using existing browser session")
		return nil
	}
	email, password := req.Email, req.Password
	if email == "" {
		email, password = f.cfg.Email, f.cfg.Password
	}
	if email == "" || password == "" {
		slog.Info("No credentials configured, using existing browser session")
		return nil
	}

	url, err := drv.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrAuthentication, err)
	}
	if !isLoginURL(url) {
		slog.Info("Not on a sign-in page, assuming already logged in", "url", url)
		return nil
	}

	if err := f.login(ctx, drv, email, password); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrAuthentication, err)
	}

	// Back to the target site with the fresh session.
	if err := drv.Navigate(ctx, f.cfg.NavigationURL); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrAuthentication, err)
	}
	return f.settle(ctx)
}

// uploadContent creates a new workspace and inserts the text as pasted
// content. Success is defined by the confirm click succeeding; the persisted
// content is not re-read for verification.
func (f *Flow) uploadContent(ctx context.Context, drv pageDriver, req entity.AutomationRequest) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"create new", func() error { return drv.Click(ctx, createNewLocators(), f.cfg.ClickTimeout) }},
		{"pasted text", func() error { return drv.Click(ctx, pastedTextLocators(), f.cfg.ClickTimeout) }},
		{"fill textarea", func() error {
			return drv.Fill(ctx, uploadTextareaLocators(), req.Content, f.cfg.ClickTimeout)
		}},
		{"insert", func() error { return drv.Click(ctx, insertLocators(), f.cfg.ClickTimeout) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%w: step %q: %v", repository.ErrUpload, step.name, err)
		}
		slog.Debug("Upload step completed", "step", step.name)
		if err := f.settle(ctx); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrUpload, err)
		}
	}
	slog.Info("Content uploaded", "chars", len(req.Content))
	return nil
}

// triggerGeneration clicks the audio-overview action and fails fast when the
// daily quota banner appears. Quota exhaustion is terminal and must reach
// the caller as something other than a timeout.
func (f *Flow) triggerGeneration(ctx context.Context, drv pageDriver, req entity.AutomationRequest) error {
	if err := drv.Click(ctx, audioOverviewLocators(), f.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTrigger, err)
	}
	if err := f.settle(ctx); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTrigger, err)
	}

	limited, err := drv.AnyTextPresent(ctx, quotaPhrases)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrTrigger, err)
	}
	if limited {
		slog.Warn("Daily audio overview limit reached")
		return repository.ErrQuotaExceeded
	}
	slog.Info("Audio generation triggered")
	return nil
}

// budget returns the total polling budget for this request.
func (f *Flow) budget(req entity.AutomationRequest) time.Duration {
	if req.MaxWait > 0 {
		return req.MaxWait
	}
	return f.cfg.MaxWait
}

// settle pauses briefly so the SPA can react to the previous interaction.
func (f *Flow) settle(ctx context.Context) error {
	return sleepCtx(ctx, f.cfg.UISettle)
}

// snapshot captures a step-named debug screenshot when debug mode is on.
func (f *Flow) snapshot(ctx context.Context, drv pageDriver, req entity.AutomationRequest, step string) {
	if !req.DebugMode {
		return
	}
	path := fmt.Sprintf("debug_%s.png", step)
	if err := drv.Screenshot(ctx, path); err != nil {
		slog.Warn("Debug screenshot failed", "step", step, "error", err)
		return
	}
	slog.Debug("Debug screenshot written", "path", path)
}

func isLoginURL(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range loginPageMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
