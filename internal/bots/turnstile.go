package bots

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/captcha"
)

const turnstileSelector = "div[id^='turnstile-container']:not([hidden]), div.cf-turnstile"

// turnstileVisible reports whether a Cloudflare Turnstile widget is active
// on the page.
func turnstileVisible(page playwright.Page) bool {
	n, err := page.Locator(turnstileSelector).Count()
	return err == nil && n > 0
}

// solveTurnstile extracts the widget's sitekey, solves it through the
// configured service, and injects the token into the hidden response field.
func solveTurnstile(ctx context.Context, page playwright.Page, solver captcha.Solver) error {
	if solver == nil || !solver.Enabled() {
		return fmt.Errorf("no captcha solver configured")
	}

	widget := page.Locator(turnstileSelector).First()
	siteKey, err := widget.GetAttribute("data-sitekey")
	if err != nil || siteKey == "" {
		result, evalErr := page.Evaluate(
			`() => { const el = document.querySelector('[data-sitekey]'); return el ? el.getAttribute('data-sitekey') : ''; }`)
		if evalErr != nil {
			return fmt.Errorf("could not read turnstile sitekey: %w", evalErr)
		}
		siteKey, _ = result.(string)
	}
	if siteKey == "" {
		return fmt.Errorf("turnstile widget has no sitekey")
	}

	token, err := solver.SolveTurnstile(ctx, page.URL(), siteKey)
	if err != nil {
		return fmt.Errorf("turnstile solve failed: %w", err)
	}

	_, err = page.Evaluate(`(token) => {
		const field = document.querySelector("input[name='cf-turnstile-response']");
		if (field) field.value = token;
		if (window.turnstileCallback) window.turnstileCallback(token);
	}`, token)
	if err != nil {
		return fmt.Errorf("could not inject turnstile token: %w", err)
	}
	return nil
}
