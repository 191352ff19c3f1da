package chromedp_flow

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/repository"
	"github.com/user/audioflow-service/pkg/config"
	"github.com/user/audioflow-service/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func testFlowConfig() config.FlowConfig {
	return config.FlowConfig{
		NavigationURL:   "https://target.test/app",
		MinContentChars: 10,
		MaxWait:         400 * time.Millisecond,
		PollTick:        10 * time.Millisecond,
		MinReadyGate:    60 * time.Millisecond,
		ReloadEvery:     100 * time.Millisecond,
		ReloadGrace:     120 * time.Millisecond,
		DownloadRetry:   30 * time.Millisecond,
		ClickTimeout:    10 * time.Millisecond,
		DownloadTimeout: 20 * time.Millisecond,
		TwoFactorWait:   50 * time.Millisecond,
		UISettle:        time.Millisecond,
	}
}

func newTestFlow(drv *fakeDriver, mutate func(*config.FlowConfig)) *Flow {
	cfg := testFlowConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	return &Flow{
		cfg: cfg,
		newDriver: func(ctx context.Context, cfg config.FlowConfig) (pageDriver, error) {
			return drv, nil
		},
	}
}

func testRequest() entity.AutomationRequest {
	return entity.AutomationRequest{Content: "long enough content for a run"}
}

func TestRunSucceedsViaInteractivePath(t *testing.T) {
	drv := newFakeDriver()
	drv.ready = true
	flow := newTestFlow(drv, nil)

	res, err := flow.Run(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Uploaded)
	assert.Equal(t, drv.downloadPath, res.DownloadedFile)
	assert.Equal(t, entity.StageNone, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunDownloadFallsBackToMoreMenu(t *testing.T) {
	drv := newFakeDriver()
	drv.ready = true
	drv.clickErrs["interactive"] = errors.New("no interactive button")
	flow := newTestFlow(drv, nil)

	res, err := flow.Run(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, drv.downloadPath, res.DownloadedFile)

	// Path order is fixed: the interactive path is always tried first.
	first := indexOf(drv.clicks, "interactive")
	second := indexOf(drv.clicks, "more")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
	assert.Equal(t, 1, drv.clickCount("menuitem"))
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunQuotaFailsFastAfterTrigger(t *testing.T) {
	drv := newFakeDriver()
	drv.quota = true
	flow := newTestFlow(drv, nil)

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrQuotaExceeded)
	assert.False(t, res.Success)
	assert.True(t, res.Uploaded)
	assert.Equal(t, entity.StageQuotaExceeded, res.FailureStage)
	// Quota is terminal at trigger time: the poll loop is never entered.
	assert.Equal(t, 0, drv.reloadCalls)
	assert.Equal(t, 0, drv.downloadCalls)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunQuotaDuringPolling(t *testing.T) {
	drv := newFakeDriver()
	drv.generating = true
	flow := newTestFlow(drv, nil)

	// Flip to rate-limited after a couple of ticks.
	go func() {
		time.Sleep(40 * time.Millisecond)
		drv.mu.Lock()
		drv.generating = false
		drv.quota = true
		drv.mu.Unlock()
	}()

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrQuotaExceeded)
	assert.Equal(t, entity.StageQuotaExceeded, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunTimesOutWhenNeverReady(t *testing.T) {
	drv := newFakeDriver()
	drv.generating = true
	// Opportunistic post-reload attempts must not rescue a page that never
	// produces an artifact.
	drv.downloadErr["link"] = errors.New("no artifact link")
	drv.downloadErr["menuitem"] = errors.New("no artifact menu item")
	flow := newTestFlow(drv, nil)

	start := time.Now()
	res, err := flow.Run(context.Background(), testRequest())
	elapsed := time.Since(start)

	require.ErrorIs(t, err, repository.ErrPollingTimeout)
	assert.Equal(t, entity.StagePollingTimeout, res.FailureStage)
	assert.True(t, res.Uploaded)
	assert.False(t, res.Success)
	assert.GreaterOrEqual(t, elapsed, flow.cfg.MaxWait)
	// The loop gives up within roughly one tick of the budget.
	assert.Less(t, elapsed, flow.cfg.MaxWait+200*time.Millisecond)
	// The reload cadence kicked in after the grace period.
	assert.GreaterOrEqual(t, drv.reloadCalls, 1)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunHonorsMinReadyGate(t *testing.T) {
	drv := newFakeDriver()
	drv.ready = true
	flow := newTestFlow(drv, nil)

	start := time.Now()
	res, err := flow.Run(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, res.Success)
	// Ready from the very first tick, but no download may fire before the
	// minimum gate.
	assert.GreaterOrEqual(t, drv.firstDownload.Sub(start), flow.cfg.MinReadyGate)
}

func TestRunRequestBudgetOverridesConfig(t *testing.T) {
	drv := newFakeDriver()
	drv.generating = true
	flow := newTestFlow(drv, func(cfg *config.FlowConfig) {
		cfg.MaxWait = 10 * time.Second
	})

	req := testRequest()
	req.MaxWait = 100 * time.Millisecond

	start := time.Now()
	_, err := flow.Run(context.Background(), req)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, repository.ErrPollingTimeout)
	assert.Less(t, elapsed, time.Second)
}

func TestRunUploadFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.clickErrs["create"] = errors.New("dialog never opened")
	flow := newTestFlow(drv, nil)

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrUpload)
	assert.False(t, res.Uploaded)
	assert.Equal(t, entity.StageUpload, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunTriggerFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.clickErrs["overview"] = errors.New("button not found")
	flow := newTestFlow(drv, nil)

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrTrigger)
	assert.True(t, res.Uploaded)
	assert.Equal(t, entity.StageTrigger, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunNavigationFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	flow := newTestFlow(drv, nil)

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrPageClosed)
	assert.Equal(t, entity.StageAborted, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunBrowserLaunchFailure(t *testing.T) {
	flow := &Flow{
		cfg: testFlowConfig(),
		newDriver: func(ctx context.Context, cfg config.FlowConfig) (pageDriver, error) {
			return nil, errors.New("chrome binary not found")
		},
	}

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrBrowserLaunch)
	assert.Equal(t, entity.StageBrowserLaunch, res.FailureStage)
	assert.False(t, res.Uploaded)
}

func TestRunContextCancelledDuringPolling(t *testing.T) {
	drv := newFakeDriver()
	drv.generating = true
	flow := newTestFlow(drv, func(cfg *config.FlowConfig) {
		cfg.MaxWait = 10 * time.Second
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	res, err := flow.Run(ctx, testRequest())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, entity.StageAborted, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunPageLostDuringPolling(t *testing.T) {
	drv := newFakeDriver()
	drv.generating = true
	flow := newTestFlow(drv, nil)

	go func() {
		time.Sleep(40 * time.Millisecond)
		drv.mu.Lock()
		drv.textErr = errors.New("target closed")
		drv.mu.Unlock()
	}()

	res, err := flow.Run(context.Background(), testRequest())

	require.ErrorIs(t, err, repository.ErrPageClosed)
	assert.Equal(t, entity.StageAborted, res.FailureStage)
	assert.Equal(t, 1, drv.closeCalls)
}

func TestRunAutoLogin(t *testing.T) {
	drv := newFakeDriver()
	drv.ready = true
	drv.url = "https://accounts.google.com/v3/signin/identifier"
	flow := newTestFlow(drv, func(cfg *config.FlowConfig) {
		cfg.AutoLogin = true
		cfg.Email = "robot@example.com"
		cfg.Password = "secret"
	})

	res, err := flow.Run(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, drv.fills, "email")
	assert.Contains(t, drv.fills, "password")
	assert.GreaterOrEqual(t, drv.clickCount("email_next"), 1)
	assert.GreaterOrEqual(t, drv.clickCount("password_next"), 1)
	// Navigated twice: the initial load and the post-login return.
	assert.Equal(t, 2, drv.navCalls)
}

func TestRunAutoLoginSkippedWhenAlreadySignedIn(t *testing.T) {
	drv := newFakeDriver()
	drv.ready = true
	flow := newTestFlow(drv, func(cfg *config.FlowConfig) {
		cfg.AutoLogin = true
		cfg.Email = "robot@example.com"
		cfg.Password = "secret"
	})

	res, err := flow.Run(context.Background(), testRequest())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, drv.fills)
	assert.Equal(t, 1, drv.navCalls)
}

func TestStageForPollError(t *testing.T) {
	cases := []struct {
		err  error
		want entity.FailureStage
	}{
		{repository.ErrQuotaExceeded, entity.StageQuotaExceeded},
		{repository.ErrPollingTimeout, entity.StagePollingTimeout},
		{repository.ErrPageClosed, entity.StageAborted},
		{context.Canceled, entity.StageAborted},
		{context.DeadlineExceeded, entity.StageAborted},
		{repository.ErrDownload, entity.StageDownload},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stageForPollError(tc.err), "err=%v", tc.err)
	}
}

func TestIsLoginURL(t *testing.T) {
	assert.True(t, isLoginURL("https://accounts.google.com/v3/signin/identifier"))
	assert.True(t, isLoginURL("https://example.com/ServiceLogin"))
	assert.False(t, isLoginURL("https://target.test/app"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "ro***@example.com", maskEmail("robot@example.com"))
	assert.Equal(t, "***", maskEmail("a@b.c"))
	assert.Equal(t, "***", maskEmail("not-an-email"))
}

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}
