package chromedp_flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// login drives the multi-step Google sign-in form: account chooser, email,
// password, an optional human-completed 2FA window, then URL-based
// completion detection. Steps are never partially retried; the first step
// that exhausts its strategies fails the whole sequence.
func (f *Flow) login(ctx context.Context, drv pageDriver, email, password string) error {
	slog.Info("Starting Google login", "email", maskEmail(email))

	// The account chooser only appears for profiles that already hold a
	// session, so a miss here is fine.
	if err := drv.Click(ctx, useAnotherAccountLocators(), f.cfg.UISettle); err != nil {
		slog.Debug("No account chooser shown", "error", err)
	} else if err := f.settle(ctx); err != nil {
		return err
	}

	if err := drv.Fill(ctx, emailInputLocators(), email, f.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("entering email: %w", err)
	}
	if err := drv.Click(ctx, emailNextLocators(), f.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("submitting email: %w", err)
	}
	if err := f.settle(ctx); err != nil {
		return err
	}

	if err := drv.Fill(ctx, passwordInputLocators(), password, f.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("entering password: %w", err)
	}
	if err := drv.Click(ctx, passwordNextLocators(), f.cfg.ClickTimeout); err != nil {
		return fmt.Errorf("submitting password: %w", err)
	}
	if err := f.settle(ctx); err != nil {
		return err
	}

	if err := f.awaitTwoFactor(ctx, drv); err != nil {
		return err
	}

	return f.awaitLoginCompletion(ctx, drv, f.cfg.TwoFactorWait)
}

// awaitTwoFactor detects a 2FA prompt and holds the run in an explicit
// awaiting-external-action state until a human completes it in the browser
// or the bounded window expires. This is a deliberate escape hatch, not
// automation.
func (f *Flow) awaitTwoFactor(ctx context.Context, drv pageDriver) error {
	present, err := drv.AnyTextPresent(ctx, twoFactorPhrases)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}

	slog.Warn("Awaiting external action: complete 2FA in the browser",
		"window", f.cfg.TwoFactorWait.String())
	deadline := time.Now().Add(f.cfg.TwoFactorWait)
	for time.Now().Before(deadline) {
		if err := sleepCtx(ctx, f.cfg.UISettle); err != nil {
			return err
		}
		still, err := drv.AnyTextPresent(ctx, twoFactorPhrases)
		if err != nil {
			return err
		}
		if !still {
			slog.Info("2FA completed externally")
			return nil
		}
	}
	return fmt.Errorf("2FA not completed within %s", f.cfg.TwoFactorWait)
}

// awaitLoginCompletion polls the page URL until it leaves the sign-in
// domain or lands on a known post-login redirect.
func (f *Flow) awaitLoginCompletion(ctx context.Context, drv pageDriver, budget time.Duration) error {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		url, err := drv.CurrentURL(ctx)
		if err != nil {
			return err
		}
		lower := strings.ToLower(url)
		for _, marker := range loginDoneMarkers {
			if strings.Contains(lower, strings.ToLower(marker)) {
				slog.Info("Login completed", "url", url)
				return nil
			}
		}
		if !strings.Contains(lower, "signin") && !strings.Contains(lower, "login") {
			slog.Info("Login completed, left sign-in pages", "url", url)
			return nil
		}
		if err := sleepCtx(ctx, f.cfg.UISettle); err != nil {
			return err
		}
	}
	return fmt.Errorf("login did not complete within %s", budget)
}

func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 2 {
		return "***"
	}
	return email[:2] + "***" + email[at:]
}
