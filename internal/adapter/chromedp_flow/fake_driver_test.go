package chromedp_flow

import (
	"context"
	"strings"
	"sync"
	"time"
)

// fakeDriver is a scripted page driver. UI state is expressed as three
// booleans the tests flip; element resolution is routed by the description
// of the first locator in each fallback list.
type fakeDriver struct {
	mu sync.Mutex

	url        string
	quota      bool
	generating bool
	ready      bool
	twoFactor  bool

	clickErrs map[string]error // action token -> injected failure
	navErr    error
	reloadErr error
	textErr   error

	downloadPath string
	downloadErr  map[string]error // "link" / "menuitem" -> injected failure

	navCalls      int
	reloadCalls   int
	closeCalls    int
	downloadCalls int
	firstDownload time.Time
	clicks        []string
	fills         []string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		url:          "https://target.test/app",
		clickErrs:    map[string]error{},
		downloadErr:  map[string]error{},
		downloadPath: "/downloads/audio_overview.wav",
	}
}

func (d *fakeDriver) token(locs []locator) string {
	desc := locs[0].desc
	switch {
	case strings.Contains(desc, "Create new"):
		return "create"
	case strings.Contains(desc, "Copied text"):
		return "pasted"
	case strings.Contains(desc, "Insert"):
		return "insert"
	case strings.Contains(desc, "Audio Overview"):
		return "overview"
	case strings.Contains(desc, "Interactive"):
		return "interactive"
	case strings.Contains(desc, "button-text=More"):
		return "more"
	case strings.Contains(desc, "link-text="):
		return "link"
	case strings.Contains(desc, "menuitem="):
		return "menuitem"
	case strings.Contains(desc, "Use another account"):
		return "chooser"
	case strings.Contains(desc, "identifierNext"):
		return "email_next"
	case strings.Contains(desc, "passwordNext"):
		return "password_next"
	case strings.Contains(desc, "email"):
		return "email"
	case strings.Contains(desc, "password"):
		return "password"
	default:
		return desc
	}
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navCalls++
	if d.navErr != nil {
		return d.navErr
	}
	return nil
}

func (d *fakeDriver) Reload(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reloadCalls++
	return d.reloadErr
}

func (d *fakeDriver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *fakeDriver) Click(ctx context.Context, locs []locator, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	token := d.token(locs)
	d.clicks = append(d.clicks, token)
	if err, ok := d.clickErrs[token]; ok {
		return err
	}
	// Submitting the password moves the fake off the sign-in domain.
	if token == "password_next" {
		d.url = "https://target.test/app"
	}
	return nil
}

func (d *fakeDriver) Fill(ctx context.Context, locs []locator, value string, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fills = append(d.fills, d.token(locs))
	return nil
}

func (d *fakeDriver) AnyTextPresent(ctx context.Context, phrases []string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.textErr != nil {
		return false, d.textErr
	}
	switch phrases[0] {
	case quotaPhrases[0]:
		return d.quota, nil
	case generatingPhrases[0]:
		return d.generating, nil
	case readyPhrases[0]:
		return d.ready, nil
	case twoFactorPhrases[0]:
		return d.twoFactor, nil
	}
	return false, nil
}

func (d *fakeDriver) Download(ctx context.Context, locs []locator, timeout time.Duration) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.downloadCalls++
	if d.firstDownload.IsZero() {
		d.firstDownload = time.Now()
	}
	token := d.token(locs)
	d.clicks = append(d.clicks, token)
	if err, ok := d.downloadErr[token]; ok {
		return "", err
	}
	return d.downloadPath, nil
}

func (d *fakeDriver) Screenshot(ctx context.Context, path string) error {
	return nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	return nil
}

func (d *fakeDriver) clickCount(token string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.clicks {
		if c == token {
			n++
		}
	}
	return n
}
