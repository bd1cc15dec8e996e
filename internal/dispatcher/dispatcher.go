// Package dispatcher runs the worker's claim-process loop: claim one pending
// application, build its resume variant, drive the platform bot, and map the
// outcome back onto the task row. No error escapes the per-task pipeline;
// everything converts into a task status so the loop keeps going.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/answers"
	"go-applyflow-automation/internal/bots"
	"go-applyflow-automation/internal/browser"
	"go-applyflow-automation/internal/htmltext"
	"go-applyflow-automation/internal/models"
	"go-applyflow-automation/internal/resume"
)

// TaskStore is the slice of the repository the dispatcher drives.
type TaskStore interface {
	ClaimNext(ctx context.Context, randomOrder bool) (*models.ApplicationTask, error)
	GetJob(ctx context.Context, jobID int64) (*models.JobPosting, error)
	GetProfile(ctx context.Context, userID int64) (*models.CandidateProfile, error)
	SaveJobDescription(ctx context.Context, jobID int64, description string) error
	SaveResumeVariant(ctx context.Context, taskID int64, variantJSON []byte, cvURL string) error
	SaveScreenshotURL(ctx context.Context, taskID int64, url string) error
	MarkSuccess(ctx context.Context, taskID int64, message string) error
	MarkFailed(ctx context.Context, taskID int64, message string) error
	MarkRetry(ctx context.Context, taskID int64, message string) error
	MarkManualRequired(ctx context.Context, taskID int64, message, cvURL string) error
}

// Generator builds the per-application CV variant.
type Generator interface {
	Generate(ctx context.Context, profile *models.CandidateProfile, job *models.JobPosting, description string) (*resume.Variant, error)
}

// Registry resolves an apply URL to its platform bot.
type Registry interface {
	Lookup(applyURL string) (bots.Bot, string, bool)
}

// Sessions hands out isolated browser sessions.
type Sessions interface {
	NewSession() (*browser.Session, error)
}

// Screenshots captures and persists final page evidence.
type Screenshots interface {
	Capture(ctx context.Context, page playwright.Page, taskID int64) (string, error)
}

// Reporter is notified about outcomes that need human eyes. May be nil.
type Reporter interface {
	TaskNeedsAttention(task *models.ApplicationTask, status models.Status, message string)
}

type Config struct {
	IdleDelay   time.Duration
	RandomOrder bool
	TestMode    bool
}

type Dispatcher struct {
	store    TaskStore
	gen      Generator
	registry Registry
	sessions Sessions
	shots    Screenshots
	reporter Reporter
	resolver func(profile *models.CandidateProfile, job answers.JobContext) *answers.Resolver
	cfg      Config
	log      *slog.Logger
}

func New(store TaskStore, gen Generator, registry Registry, sessions Sessions, shots Screenshots, reporter Reporter, newResolver func(*models.CandidateProfile, answers.JobContext) *answers.Resolver, cfg Config, log *slog.Logger) *Dispatcher {
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = 3 * time.Second
	}
	return &Dispatcher{
		store:    store,
		gen:      gen,
		registry: registry,
		sessions: sessions,
		shots:    shots,
		reporter: reporter,
		resolver: newResolver,
		cfg:      cfg,
		log:      log,
	}
}

// Run polls for work until the context is cancelled. One task at a time;
// horizontal scaling is more worker processes, not more goroutines here.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("worker started", "idle_delay", d.cfg.IdleDelay, "test_mode", d.cfg.TestMode)

	for {
		if err := ctx.Err(); err != nil {
			d.log.Info("worker stopping")
			return err
		}

		task, err := d.store.ClaimNext(ctx, d.cfg.RandomOrder)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				d.sleep(ctx, d.cfg.IdleDelay)
				continue
			}
			d.log.Error("claim failed", "error", err)
			d.sleep(ctx, d.cfg.IdleDelay)
			continue
		}

		d.log.Info("claimed task", "task_id", task.ID, "user_id", task.UserID, "job_id", task.JobID)
		d.processTask(ctx, task)

		d.sleep(ctx, time.Second)
	}
}

func (d *Dispatcher) sleep(ctx context.Context, dur time.Duration) {
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// processTask runs the full pipeline for one claimed task. Every exit path
// finalizes the row.
func (d *Dispatcher) processTask(ctx context.Context, task *models.ApplicationTask) {
	log := d.log.With("task_id", task.ID)

	job, err := d.store.GetJob(ctx, task.JobID)
	if err != nil {
		d.finalize(ctx, task, models.StatusFailed, fmt.Sprintf("job %d not found: %v", task.JobID, err), "")
		return
	}
	profile, err := d.store.GetProfile(ctx, task.UserID)
	if err != nil {
		d.finalize(ctx, task, models.StatusFailed, fmt.Sprintf("profile %d not found: %v", task.UserID, err), "")
		return
	}

	applyURL := job.ResolveURL()
	if applyURL == "" {
		d.finalize(ctx, task, models.StatusFailed, "job has no apply url", "")
		return
	}

	// Resolve the bot before spending anything on a browser or the
	// generative service.
	bot, platform, ok := d.registry.Lookup(applyURL)
	if !ok {
		d.finalize(ctx, task, models.StatusFailed, fmt.Sprintf("unsupported platform for %s", applyURL), "")
		return
	}
	log = log.With("platform", platform)

	description, err := d.jobDescription(ctx, job)
	if err != nil {
		d.finalize(ctx, task, models.StatusRetry, fmt.Sprintf("job description scrape failed: %v", err), "")
		return
	}

	variant, err := d.gen.Generate(ctx, profile, job, description)
	if err != nil {
		d.finalize(ctx, task, models.StatusRetry, fmt.Sprintf("resume generation error: %v", err), "")
		return
	}
	defer os.Remove(variant.LocalPath)

	if err := d.store.SaveResumeVariant(ctx, task.ID, variant.JSON, variant.URL); err != nil {
		d.finalize(ctx, task, models.StatusFailed, fmt.Sprintf("failed saving resume variant: %v", err), variant.URL)
		return
	}
	task.ResumeURL = variant.URL

	if d.cfg.TestMode {
		log.Info("test mode, skipping browser run")
		d.finalize(ctx, task, models.StatusSuccess, "resume generated, test mode skipped submission", variant.URL)
		return
	}

	result := d.runBot(ctx, bot, task, job, profile, description, variant)
	log.Info("bot finished", "status", result.Status, "message", result.Message)

	if result.ScreenshotURL != "" {
		if err := d.store.SaveScreenshotURL(ctx, task.ID, result.ScreenshotURL); err != nil {
			log.Warn("could not persist screenshot url", "error", err)
		}
	}

	switch result.Status {
	case models.StatusSuccess:
		d.finalize(ctx, task, models.StatusSuccess, result.Message, variant.URL)
	case models.StatusRetry:
		d.finalize(ctx, task, models.StatusRetry, result.Message, variant.URL)
	case models.StatusManualRequired:
		d.finalize(ctx, task, models.StatusManualRequired, result.Message, variant.URL)
	default:
		d.finalize(ctx, task, models.StatusFailed, result.Message, variant.URL)
	}
}

// runBot opens an isolated session and lets the platform bot drive it. A
// panic or session failure after the resume exists becomes manual_required
// so the generated materials are not wasted.
func (d *Dispatcher) runBot(ctx context.Context, bot bots.Bot, task *models.ApplicationTask, job *models.JobPosting, profile *models.CandidateProfile, description string, variant *resume.Variant) (result models.ApplyResult) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("bot crashed", "task_id", task.ID, "panic", r)
			result = models.ApplyResult{
				Status:  models.StatusManualRequired,
				Message: fmt.Sprintf("bot crashed: %v", r),
			}
		}
	}()

	session, err := d.sessions.NewSession()
	if err != nil {
		return models.ApplyResult{Status: models.StatusRetry, Message: fmt.Sprintf("could not open browser session: %v", err)}
	}
	defer session.Close()

	resolver := d.resolver(profile, answers.JobContext{
		Title:       job.Title,
		Company:     job.Company,
		Description: description,
	})

	result = bot.Apply(ctx, bots.Request{
		Page:     session.Page,
		Job:      job,
		Profile:  profile,
		Resolver: resolver,
		CVPath:   variant.LocalPath,
	})

	if d.shots != nil && session.Page != nil {
		if url, err := d.shots.Capture(ctx, session.Page, task.ID); err == nil {
			result.ScreenshotURL = url
		}
	}
	return result
}

// jobDescription returns plain text for the generative calls, scraping the
// posting when the stored description is missing or too thin to be useful.
func (d *Dispatcher) jobDescription(ctx context.Context, job *models.JobPosting) (string, error) {
	if len(job.Description) >= 50 {
		return htmltext.Flatten(job.Description), nil
	}

	session, err := d.sessions.NewSession()
	if err != nil {
		return "", fmt.Errorf("no browser session for scrape: %w", err)
	}
	defer session.Close()

	if _, err := session.Page.Goto(job.ResolveURL(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return "", fmt.Errorf("could not open posting: %w", err)
	}
	session.Page.WaitForTimeout(1500)

	html, err := session.Page.Content()
	if err != nil {
		return "", fmt.Errorf("could not read posting: %w", err)
	}

	text := htmltext.Flatten(html)
	if len(text) < 50 {
		return "", fmt.Errorf("posting page yielded no description")
	}

	if err := d.store.SaveJobDescription(ctx, job.ID, html); err != nil {
		d.log.Warn("could not persist scraped description", "job_id", job.ID, "error", err)
	}
	job.Description = html
	return text, nil
}

// finalize writes the terminal status for this run and notifies the
// reporter about outcomes needing attention.
func (d *Dispatcher) finalize(ctx context.Context, task *models.ApplicationTask, status models.Status, message, cvURL string) {
	var err error
	switch status {
	case models.StatusSuccess:
		err = d.store.MarkSuccess(ctx, task.ID, message)
	case models.StatusRetry:
		err = d.store.MarkRetry(ctx, task.ID, message)
	case models.StatusManualRequired:
		err = d.store.MarkManualRequired(ctx, task.ID, message, cvURL)
	default:
		err = d.store.MarkFailed(ctx, task.ID, message)
	}
	if err != nil {
		d.log.Error("could not finalize task", "task_id", task.ID, "status", status, "error", err)
		return
	}

	d.log.Info("task finalized", "task_id", task.ID, "status", status, "message", message)

	if d.reporter != nil && (status == models.StatusManualRequired || status == models.StatusFailed) {
		d.reporter.TaskNeedsAttention(task, status, message)
	}
}
