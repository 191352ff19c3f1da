package chromedp_flow

import "fmt"

// The target UI renders in whatever language the Google account uses, so
// every action and state probe carries English and Vietnamese variants.
// Canonical action -> localized text is kept here as data; control flow
// never embeds a UI string directly.

type action string

const (
	actionCreateNew     action = "create_new"
	actionPastedText    action = "pasted_text"
	actionInsert        action = "insert"
	actionAudioOverview action = "audio_overview"
	actionInteractive   action = "interactive"
	actionMoreMenu      action = "more_menu"
	actionDownload      action = "download"
)

var actionVariants = map[action][]string{
	actionCreateNew:     {"Create new", "Tạo mới"},
	actionPastedText:    {"Copied text", "Paste text", "Văn bản đã sao chép"},
	actionInsert:        {"Insert", "Chèn", "Thêm"},
	actionAudioOverview: {"Audio Overview", "Tổng quan âm thanh", "Bản tổng quan âm thanh"},
	actionInteractive:   {"Interactive", "Tương tác"},
	actionMoreMenu:      {"More", "Thêm"},
	actionDownload:      {"Download", "Tải xuống"},
}

// State probe phrases. Presence anywhere in the page body is enough; the
// probes are cheap innerText scans, not element waits.
var (
	generatingPhrases = []string{
		"Generating", "Processing",
		"Đang tạo", "Đang xử lý",
	}
	readyPhrases = []string{
		"Deep Dive", "Digital Fossil", "Interactive",
		"Đào sâu", "Hoá thạch số", "Tương tác",
		"minute", "phút",
	}
	quotaPhrases = []string{
		"You have reached your daily Audio Overview limits",
		"Bạn đã đạt giới hạn",
		"đã đạt giới hạn",
		"giới hạn hàng ngày",
	}
	twoFactorPhrases = []string{
		"2-Step Verification",
		"Verify it's you",
		"Get a verification code",
	}
)

// loginPageMarkers identify a Google sign-in URL; loginDoneMarkers identify
// a post-login redirect.
var (
	loginPageMarkers = []string{"accounts.google.com", "signin", "login"}
	loginDoneMarkers = []string{
		"accounts.google.com/signin/oauth",
		"myaccount.google.com",
		"accounts.google.com/ManageAccount",
	}
)

// locator is one element-resolution strategy: a CSS selector or an XPath
// expression. Lists of locators are tried in order, first match wins.
type locator struct {
	sel   string
	xpath bool
	desc  string
}

func textLocator(text string) locator {
	return locator{
		sel:   fmt.Sprintf(`//*[text()[contains(., %q)]]`, text),
		xpath: true,
		desc:  "text=" + text,
	}
}

func buttonLocator(text string) locator {
	return locator{
		sel:   fmt.Sprintf(`//button[contains(., %q)]`, text),
		xpath: true,
		desc:  "button-text=" + text,
	}
}

func ariaLocator(text string) locator {
	return locator{
		sel:  fmt.Sprintf(`[aria-label*=%q]`, text),
		desc: "aria=" + text,
	}
}

func cssLocator(sel string) locator {
	return locator{sel: sel, desc: "css=" + sel}
}

// clickLocators builds the standard fallback list for a clickable action:
// button text per locale, then bare text, then aria-label, then any
// structural extras.
func clickLocators(a action, extra ...locator) []locator {
	var locs []locator
	for _, v := range actionVariants[a] {
		locs = append(locs, buttonLocator(v))
	}
	for _, v := range actionVariants[a] {
		locs = append(locs, textLocator(v))
	}
	for _, v := range actionVariants[a] {
		locs = append(locs, ariaLocator(v))
	}
	return append(locs, extra...)
}

func createNewLocators() []locator {
	return clickLocators(actionCreateNew)
}

func pastedTextLocators() []locator {
	return clickLocators(actionPastedText,
		cssLocator(`mat-chip`),
	)
}

func uploadTextareaLocators() []locator {
	return []locator{
		cssLocator(`div[role="dialog"] textarea`),
		cssLocator(`mat-dialog-container textarea`),
		cssLocator(`textarea[placeholder*="Paste text"]`),
		cssLocator(`textarea`),
	}
}

func insertLocators() []locator {
	return clickLocators(actionInsert)
}

func audioOverviewLocators() []locator {
	return clickLocators(actionAudioOverview,
		cssLocator(`.mdc-button__label`),
	)
}

// Download path (a): the interactive quick-action button, then the direct
// download control it reveals.
func interactiveLocators() []locator {
	return clickLocators(actionInteractive,
		locator{sel: `//button[.//mat-icon[contains(., "waving_hand")]]`, xpath: true, desc: "icon=waving_hand"},
	)
}

func downloadLinkLocators() []locator {
	var locs []locator
	for _, v := range actionVariants[actionDownload] {
		locs = append(locs, locator{
			sel:   fmt.Sprintf(`//a[contains(., %q)]`, v),
			xpath: true,
			desc:  "link-text=" + v,
		})
	}
	for _, v := range actionVariants[actionDownload] {
		locs = append(locs, ariaLocator(v))
	}
	return append(locs,
		cssLocator(`a[href*="googleusercontent.com"][download]`),
		locator{sel: `//button[.//mat-icon[contains(., "download")]]`, xpath: true, desc: "icon=download"},
	)
}

// Download path (b): the overflow menu on the artifact, then its download
// menu item.
func moreMenuLocators() []locator {
	return clickLocators(actionMoreMenu,
		locator{sel: `//button[.//mat-icon[contains(., "more_vert")]]`, xpath: true, desc: "icon=more_vert"},
	)
}

func downloadMenuItemLocators() []locator {
	var locs []locator
	for _, v := range actionVariants[actionDownload] {
		locs = append(locs, locator{
			sel:   fmt.Sprintf(`//*[@role="menuitem"][contains(., %q)]`, v),
			xpath: true,
			desc:  "menuitem=" + v,
		})
	}
	for _, v := range actionVariants[actionDownload] {
		locs = append(locs, textLocator(v))
	}
	return locs
}

// Google sign-in form strategies.
func useAnotherAccountLocators() []locator {
	return []locator{
		textLocator("Use another account"),
		cssLocator(`[data-identifier="UseAnotherAccount"]`),
	}
}

func emailInputLocators() []locator {
	return []locator{
		cssLocator(`input[type="email"]#identifierId`),
		cssLocator(`input[name="identifier"]`),
		cssLocator(`input[type="email"]`),
		cssLocator(`input[aria-label*="Email"]`),
	}
}

func emailNextLocators() []locator {
	return []locator{
		cssLocator(`#identifierNext button`),
		buttonLocator("Next"),
		cssLocator(`button[type="submit"]`),
	}
}

func passwordInputLocators() []locator {
	return []locator{
		cssLocator(`input[type="password"][name="Passwd"]`),
		cssLocator(`input[type="password"]`),
	}
}

func passwordNextLocators() []locator {
	return []locator{
		cssLocator(`#passwordNext button`),
		buttonLocator("Next"),
		cssLocator(`button[type="submit"]`),
	}
}
