package chromedp_flow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadOrderIsDeterministic(t *testing.T) {
	require.Equal(t, []downloadMethod{downloadInteractive, downloadMore}, downloadOrder)
}

func TestClickLocatorsPreferButtonStrategies(t *testing.T) {
	locs := audioOverviewLocators()
	require.NotEmpty(t, locs)

	// Button-text strategies come first, structural CSS extras last.
	assert.True(t, strings.HasPrefix(locs[0].desc, "button-text="))
	assert.True(t, locs[0].xpath)
	assert.Equal(t, "css=.mdc-button__label", locs[len(locs)-1].desc)
}

func TestActionVariantsAreBilingual(t *testing.T) {
	for a, variants := range actionVariants {
		assert.GreaterOrEqual(t, len(variants), 2, "action %s needs localized variants", a)
	}
}

func TestDownloadLinkLocatorsCoverBothLocales(t *testing.T) {
	locs := downloadLinkLocators()

	var descs []string
	for _, l := range locs {
		descs = append(descs, l.desc)
	}
	assert.Contains(t, descs, "link-text=Download")
	assert.Contains(t, descs, "link-text=Tải xuống")
}

func TestStateProbePhrasesNonEmpty(t *testing.T) {
	for _, phrases := range [][]string{generatingPhrases, readyPhrases, quotaPhrases, twoFactorPhrases} {
		require.NotEmpty(t, phrases)
		for _, p := range phrases {
			assert.NotEmpty(t, strings.TrimSpace(p))
		}
	}
}
