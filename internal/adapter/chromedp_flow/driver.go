package chromedp_flow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	"github.com/user/audioflow-service/pkg/config"
	"github.com/user/audioflow-service/pkg/utils"
)

// pageDriver is the narrow surface the flow engine needs from a live page.
// The chromedp implementation below is the only production driver; tests
// substitute a scripted fake so the state machine can run without a browser.
type pageDriver interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	// Click tries each locator in order with a bounded per-strategy wait and
	// clicks the first one that resolves to a visible element.
	Click(ctx context.Context, locs []locator, timeout time.Duration) error
	// Fill resolves the first matching locator and sets its value.
	Fill(ctx context.Context, locs []locator, value string, timeout time.Duration) error
	// AnyTextPresent reports whether any phrase occurs in the page body text.
	AnyTextPresent(ctx context.Context, phrases []string) (bool, error)
	// Download clicks the first resolving locator and waits for the browser
	// to report a completed download, returning the saved file's path. A
	// click alone never counts as success.
	Download(ctx context.Context, locs []locator, timeout time.Duration) (string, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

const launchTimeout = 30 * time.Second

type chromedpDriver struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	taskCancel  context.CancelFunc
	downloadDir string

	mu        sync.Mutex
	suggested map[string]string // download GUID -> browser-suggested filename
	completed chan string       // GUIDs of finished downloads
}

// newChromedpDriver launches a Chrome bound to the persistent profile
// directory with a fixed download directory. The allocator derives from the
// run context, so cancelling the run forcibly terminates the browser process.
func newChromedpDriver(ctx context.Context, cfg config.FlowConfig) (pageDriver, error) {
	if err := os.MkdirAll(cfg.ProfileDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}
	downloadDir, err := filepath.Abs(cfg.DownloadDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserDataDir(cfg.ProfileDir),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	d := &chromedpDriver{
		ctx:         taskCtx,
		allocCancel: allocCancel,
		taskCancel:  taskCancel,
		downloadDir: downloadDir,
		suggested:   make(map[string]string),
		completed:   make(chan string, 4),
	}
	d.listenDownloads()

	// Start the browser now so a missing runtime or locked profile surfaces
	// here instead of on the first navigation.
	launchCtx, cancel := context.WithTimeout(taskCtx, launchTimeout)
	defer cancel()
	if err := chromedp.Run(launchCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(downloadDir).
			WithEventsEnabled(true),
	); err != nil {
		taskCancel()
		allocCancel()
		return nil, err
	}
	return d, nil
}

// listenDownloads correlates download lifecycle events so a click can be
// matched against an actual completed file.
func (d *chromedpDriver) listenDownloads() {
	chromedp.ListenTarget(d.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *browser.EventDownloadWillBegin:
			d.mu.Lock()
			d.suggested[e.GUID] = e.SuggestedFilename
			d.mu.Unlock()
			slog.Debug("Download starting", "guid", e.GUID, "filename", e.SuggestedFilename)
		case *browser.EventDownloadProgress:
			if e.State == browser.DownloadProgressStateCompleted {
				select {
				case d.completed <- e.GUID:
				default:
				}
			}
		}
	})
}

func (d *chromedpDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(d.ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *chromedpDriver) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(d.ctx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return err
	}
	// Re-focus the page; a background tab stops painting and some SPA
	// timers stall with it. Failure here is harmless.
	focusCtx, cancel := context.WithTimeout(d.ctx, 2*time.Second)
	defer cancel()
	_ = chromedp.Run(focusCtx, chromedp.Click("body", chromedp.ByQuery))
	return nil
}

func (d *chromedpDriver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var url string
	if err := chromedp.Run(d.ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (d *chromedpDriver) Click(ctx context.Context, locs []locator, timeout time.Duration) error {
	_, err := d.clickFirst(ctx, locs, timeout)
	return err
}

func (d *chromedpDriver) clickFirst(ctx context.Context, locs []locator, timeout time.Duration) (locator, error) {
	var lastErr error
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return locator{}, err
		}
		opCtx, cancel := context.WithTimeout(d.ctx, timeout)
		err := chromedp.Run(opCtx,
			chromedp.WaitVisible(loc.sel, loc.queryOption()),
			chromedp.Click(loc.sel, loc.queryOption()),
		)
		cancel()
		if err == nil {
			slog.Debug("Element resolved", "strategy", loc.desc)
			return loc, nil
		}
		lastErr = err
	}
	return locator{}, fmt.Errorf("no strategy resolved a clickable element: %w", lastErr)
}

func (d *chromedpDriver) Fill(ctx context.Context, locs []locator, value string, timeout time.Duration) error {
	var lastErr error
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return err
		}
		opCtx, cancel := context.WithTimeout(d.ctx, timeout)
		err := chromedp.Run(opCtx,
			chromedp.WaitVisible(loc.sel, loc.queryOption()),
			chromedp.Click(loc.sel, loc.queryOption()),
			chromedp.SetValue(loc.sel, value, loc.queryOption()),
		)
		cancel()
		if err == nil {
			slog.Debug("Element filled", "strategy", loc.desc, "chars", len(value))
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("no strategy resolved a fillable element: %w", lastErr)
}

func (d *chromedpDriver) AnyTextPresent(ctx context.Context, phrases []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, phrase := range phrases {
		var found bool
		script := fmt.Sprintf(
			`!!document.body && document.body.innerText.indexOf(%s) !== -1`,
			strconv.Quote(phrase),
		)
		opCtx, cancel := context.WithTimeout(d.ctx, 5*time.Second)
		err := chromedp.Run(opCtx, chromedp.Evaluate(script, &found))
		cancel()
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (d *chromedpDriver) Download(ctx context.Context, locs []locator, timeout time.Duration) (string, error) {
	// Drain completions left over from an earlier attempt.
	for {
		select {
		case <-d.completed:
			continue
		default:
		}
		break
	}

	if _, err := d.clickFirst(ctx, locs, timeout); err != nil {
		return "", err
	}

	select {
	case guid := <-d.completed:
		return d.persistDownload(guid)
	case <-time.After(timeout):
		return "", fmt.Errorf("no completed download event within %s", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// persistDownload renames the GUID-named file Chrome wrote into the download
// directory to its browser-suggested filename.
func (d *chromedpDriver) persistDownload(guid string) (string, error) {
	d.mu.Lock()
	name := d.suggested[guid]
	d.mu.Unlock()

	src := filepath.Join(d.downloadDir, guid)
	if name == "" {
		return src, nil
	}
	dst := filepath.Join(d.downloadDir, utils.SanitizeFilename(name))
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(dst)
		dst = fmt.Sprintf("%s_%d%s", dst[:len(dst)-len(ext)], time.Now().Unix(), ext)
	}
	if err := os.Rename(src, dst); err != nil {
		slog.Warn("Could not rename downloaded file", "src", src, "error", err)
		return src, nil
	}
	return dst, nil
}

func (d *chromedpDriver) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf []byte
	opCtx, cancel := context.WithTimeout(d.ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (d *chromedpDriver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.taskCancel()
	d.allocCancel()
	return err
}

func (l locator) queryOption() chromedp.QueryOption {
	if l.xpath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
