// Package browser owns the Playwright lifecycle: one Chromium process per
// worker, one fresh context per application attempt, plus the human-pacing
// and anti-bot helpers the bots share.
package browser

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Manager holds the Playwright runtime and the shared Chromium instance.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	proxies *ProxyPool
}

// Options configure the launched browser.
type Options struct {
	Headless bool
	SlowMoMs float64
	Proxies  *ProxyPool
}

func NewManager(opts Options) (*Manager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMoMs > 0 {
		launch.SlowMo = playwright.Float(opts.SlowMoMs)
	}

	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	return &Manager{pw: pw, browser: b, proxies: opts.Proxies}, nil
}

// Session is one isolated browser context plus its page. Always call Close,
// even on error paths: a leaked context keeps its proxy connection alive.
type Session struct {
	Context playwright.BrowserContext
	Page    playwright.Page
}

// NewSession opens a fresh context with a randomized desktop identity and,
// when a pool is configured, a proxy drawn from it.
func (m *Manager) NewSession() (*Session, error) {
	ctxOpts := playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(RandomUserAgent()),
		Viewport:  &playwright.Size{Width: 1366, Height: 768},
		Locale:    playwright.String("en-GB"),
	}
	if m.proxies != nil {
		if proxy := m.proxies.Pick(); proxy != nil {
			ctxOpts.Proxy = proxy.ToPlaywright()
		}
	}

	ctx, err := m.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if err := ctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		ctx.Close()
		return nil, fmt.Errorf("could not install init script: %w", err)
	}

	page, err := ctx.NewPage()
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	return &Session{Context: ctx, Page: page}, nil
}

func (s *Session) Close() {
	if s == nil {
		return
	}
	if s.Page != nil {
		s.Page.Close()
	}
	if s.Context != nil {
		s.Context.Close()
	}
}

func (m *Manager) Close() {
	if m.browser != nil {
		m.browser.Close()
	}
	if m.pw != nil {
		m.pw.Stop()
	}
}
