// Define an interface for all application bots
// Ensure consistency

package bots

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/answers"
	"go-applyflow-automation/internal/captcha"
	"go-applyflow-automation/internal/models"
)

// Request is everything a bot needs to walk one application.
type Request struct {
	Page     playwright.Page
	Job      *models.JobPosting
	Profile  *models.CandidateProfile
	Resolver *answers.Resolver
	CVPath   string
}

// Bot defines the interface that all platform bots must implement
type Bot interface {
	// Apply walks the platform's application form end to end and reports
	// what it observed.
	Apply(ctx context.Context, req Request) models.ApplyResult

	// Name is the platform name (workable, greenhouse, lever)
	Name() string
}

// Deps are shared across all bots.
type Deps struct {
	Solver captcha.Solver
	Log    *slog.Logger

	// DryRun fills forms without submitting them.
	DryRun bool
}

// Registry maps ATS hostnames to their bots.
type Registry struct {
	bots map[string]Bot
}

func NewRegistry(deps Deps) *Registry {
	r := &Registry{bots: make(map[string]Bot)}
	r.register(NewWorkable(deps))
	r.register(NewGreenhouse(deps))
	r.register(NewLever(deps))
	return r
}

func (r *Registry) register(b Bot) {
	r.bots[b.Name()] = b
}

// Lookup returns the bot and its name for an apply URL, or ok=false when no
// bot supports the platform.
func (r *Registry) Lookup(applyURL string) (Bot, string, bool) {
	name := PlatformFor(applyURL)
	bot, ok := r.bots[name]
	return bot, name, ok
}

// PlatformFor identifies the ATS by hostname. "" means unsupported.
func PlatformFor(applyURL string) string {
	u, err := url.Parse(applyURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "workable.com"):
		return "workable"
	case strings.HasSuffix(host, "greenhouse.io"):
		return "greenhouse"
	case strings.HasSuffix(host, "lever.co"):
		return "lever"
	}
	return ""
}
