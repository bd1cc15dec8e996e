package browser

import (
	"github.com/playwright-community/playwright-go"
)

// Selectors for the consent banners the supported job boards ship. Checked
// in order; the first visible one is clicked.
var cookieBannerSelectors = []string{
	"[data-ui='cookie-consent'] button[data-ui='accept-button']",
	"#onetrust-accept-btn-handler",
	"button#cookie-accept",
	"button[aria-label='Accept cookies']",
	"button:has-text('Accept all cookies')",
	"button:has-text('Accept All')",
	"button:has-text('Allow all')",
	"div.cookie-banner button:has-text('Accept')",
}

// osano hides its accept button inside a shadow root, out of reach of
// normal selectors.
const shadowConsentJS = `() => {
	const host = document.querySelector('#cookie-consent, .osano-cm-window');
	if (!host || !host.shadowRoot) return false;
	const btn = host.shadowRoot.querySelector("button[aria-label*='Accept'], button.osano-cm-accept-all");
	if (!btn) return false;
	btn.click();
	return true;
}`

// DismissCookieBanners clears consent overlays so they cannot intercept
// clicks on the form underneath. Best effort: a banner that will not go
// away is left for the form interaction to fail on.
func DismissCookieBanners(page playwright.Page) bool {
	for _, selector := range cookieBannerSelectors {
		loc := page.Locator(selector).First()
		visible, err := loc.IsVisible()
		if err != nil || !visible {
			continue
		}
		if err := loc.Click(); err == nil {
			RandomDelay(300, 800)
			return true
		}
	}

	if result, err := page.Evaluate(shadowConsentJS); err == nil {
		if clicked, ok := result.(bool); ok && clicked {
			RandomDelay(300, 800)
			return true
		}
	}
	return false
}
