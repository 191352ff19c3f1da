package chromedp_flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/audioflow-service/internal/entity"
	"github.com/user/audioflow-service/internal/repository"
	"github.com/user/audioflow-service/pkg/metrics"
)

// pageState is the inferred condition of the target page. There is no job ID
// or server callback; completion is deduced entirely from what the UI shows,
// so every probe lives in detectState and the loop below stays a plain
// state switch.
type pageState int

const (
	stateUnknown pageState = iota
	stateGenerating
	stateReady
	stateRateLimited
)

func (s pageState) String() string {
	switch s {
	case stateGenerating:
		return "generating"
	case stateReady:
		return "ready"
	case stateRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

type downloadMethod string

const (
	downloadInteractive downloadMethod = "interactive"
	downloadMore        downloadMethod = "more_menu"
)

// downloadOrder is the deterministic fallback order for download UI paths.
var downloadOrder = []downloadMethod{downloadInteractive, downloadMore}

// detectState probes the page for quota, generating, then ready indicators.
// Order matters: the quota banner can coexist with stale ready text.
func (f *Flow) detectState(ctx context.Context, drv pageDriver) (pageState, error) {
	if found, err := drv.AnyTextPresent(ctx, quotaPhrases); err != nil {
		return stateUnknown, err
	} else if found {
		return stateRateLimited, nil
	}
	if found, err := drv.AnyTextPresent(ctx, generatingPhrases); err != nil {
		return stateUnknown, err
	} else if found {
		return stateGenerating, nil
	}
	if found, err := drv.AnyTextPresent(ctx, readyPhrases); err != nil {
		return stateUnknown, err
	} else if found {
		return stateReady, nil
	}
	return stateUnknown, nil
}

// waitAndDownload is the completion poll loop. Each tick it infers the page
// state and, once past the minimum ready gate, attempts a download whenever
// the page looks ready. Because the SPA degrades over long idle stretches,
// the page is also force-reloaded on a fixed cadence (after a grace period)
// with an opportunistic download attempt right after each reload. A failed
// download attempt is not fatal; it only counts against the overall budget.
func (f *Flow) waitAndDownload(ctx context.Context, drv pageDriver, req entity.AutomationRequest) (string, error) {
	budget := f.budget(req)
	start := time.Now()
	var lastReload, lastDownload time.Duration

	for {
		elapsed := time.Since(start)
		if elapsed >= budget {
			slog.Warn("Polling budget exhausted", "elapsed", elapsed.String())
			return "", fmt.Errorf("%w after %s", repository.ErrPollingTimeout, elapsed.Round(time.Second))
		}

		state, err := f.detectState(ctx, drv)
		if err != nil {
			return "", fmt.Errorf("%w: %v", repository.ErrPageClosed, err)
		}

		switch state {
		case stateRateLimited:
			return "", repository.ErrQuotaExceeded
		case stateGenerating:
			slog.Info("Still generating", "elapsed", elapsed.Round(time.Second).String())
		case stateReady:
			if elapsed >= f.cfg.MinReadyGate && elapsed-lastDownload >= f.cfg.DownloadRetry {
				if path, derr := f.tryDownloadPaths(ctx, drv); derr == nil {
					return path, nil
				}
				lastDownload = elapsed
			}
		case stateUnknown:
			slog.Debug("No state indicator visible", "elapsed", elapsed.Round(time.Second).String())
		}

		if elapsed >= f.cfg.ReloadGrace && elapsed-lastReload >= f.cfg.ReloadEvery {
			slog.Info("Reloading page", "elapsed", elapsed.Round(time.Second).String())
			if err := drv.Reload(ctx); err != nil {
				return "", fmt.Errorf("%w: %v", repository.ErrPageClosed, err)
			}
			if elapsed >= f.cfg.MinReadyGate {
				if path, derr := f.tryDownloadPaths(ctx, drv); derr == nil {
					return path, nil
				}
			}
			lastReload = elapsed
		}

		if err := sleepCtx(ctx, f.cfg.PollTick); err != nil {
			return "", err
		}
	}
}

// tryDownloadPaths walks the download UI paths in their fixed fallback
// order and returns the saved file path of the first one whose click is
// confirmed by a completed download event.
func (f *Flow) tryDownloadPaths(ctx context.Context, drv pageDriver) (string, error) {
	for _, method := range downloadOrder {
		path, err := f.tryDownload(ctx, drv, method)
		if err == nil {
			metrics.DownloadAttemptsTotal.WithLabelValues(string(method), "success").Inc()
			slog.Info("Download captured", "method", method, "file", path)
			return path, nil
		}
		metrics.DownloadAttemptsTotal.WithLabelValues(string(method), "failure").Inc()
		slog.Debug("Download path failed", "method", method, "error", err)
	}
	return "", repository.ErrDownload
}

func (f *Flow) tryDownload(ctx context.Context, drv pageDriver, method downloadMethod) (string, error) {
	switch method {
	case downloadInteractive:
		if err := drv.Click(ctx, interactiveLocators(), f.cfg.ClickTimeout); err != nil {
			return "", err
		}
		if err := f.settle(ctx); err != nil {
			return "", err
		}
		return drv.Download(ctx, downloadLinkLocators(), f.cfg.DownloadTimeout)
	case downloadMore:
		if err := drv.Click(ctx, moreMenuLocators(), f.cfg.ClickTimeout); err != nil {
			return "", err
		}
		if err := f.settle(ctx); err != nil {
			return "", err
		}
		return drv.Download(ctx, downloadMenuItemLocators(), f.cfg.DownloadTimeout)
	default:
		return "", fmt.Errorf("unknown download method %q", method)
	}
}

func isQuotaErr(err error) bool {
	return errors.Is(err, repository.ErrQuotaExceeded)
}

// stageForPollError maps a poll-loop error onto the failure stage reported
// to the caller.
func stageForPollError(err error) entity.FailureStage {
	switch {
	case errors.Is(err, repository.ErrQuotaExceeded):
		return entity.StageQuotaExceeded
	case errors.Is(err, repository.ErrPollingTimeout):
		return entity.StagePollingTimeout
	case errors.Is(err, repository.ErrPageClosed):
		return entity.StageAborted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return entity.StageAborted
	default:
		return entity.StageDownload
	}
}
