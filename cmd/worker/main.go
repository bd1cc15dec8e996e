package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/ai"
	"go-applyflow-automation/internal/answers"
	"go-applyflow-automation/internal/bots"
	"go-applyflow-automation/internal/browser"
	"go-applyflow-automation/internal/captcha"
	"go-applyflow-automation/internal/config"
	"go-applyflow-automation/internal/database"
	"go-applyflow-automation/internal/dispatcher"
	"go-applyflow-automation/internal/logging"
	"go-applyflow-automation/internal/models"
	"go-applyflow-automation/internal/reporter"
	"go-applyflow-automation/internal/resume"
	"go-applyflow-automation/internal/storage"
)

// screenshotter adapts the capture helper plus the uploader into what the
// dispatcher expects.
type screenshotter struct {
	uploader storage.Uploader
}

func (s *screenshotter) Capture(ctx context.Context, page playwright.Page, taskID int64) (string, error) {
	return browser.CaptureAndUpload(ctx, page, s.uploader, taskID)
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	uploader, err := storage.NewS3Uploader(ctx, cfg.S3Bucket, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("Failed to init S3 uploader: %v", err)
	}

	aiClient := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.TailorModel, cfg.AnswerModel)

	var proxies *browser.ProxyPool
	if cfg.ProxyFile != "" {
		proxies, err = browser.LoadProxies(cfg.ProxyFile)
		if err != nil {
			log.Fatalf("Failed to load proxies: %v", err)
		}
		logger.Info("proxy pool loaded", "count", proxies.Len())
	}

	manager, err := browser.NewManager(browser.Options{
		Headless: !cfg.ShowBrowser,
		Proxies:  proxies,
	})
	if err != nil {
		log.Fatalf("Failed to init Playwright: %v", err)
	}
	defer manager.Close()

	solver := captcha.NewCapSolver(cfg.CapsolverAPIKey)
	registry := bots.NewRegistry(bots.Deps{
		Solver: solver,
		Log:    logger,
		DryRun: cfg.DryRun,
	})

	gen := resume.NewGenerator(aiClient, resume.NewPDFRenderer(cfg.TemplatePath), uploader, logger)

	var notifier dispatcher.Reporter
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Warn("telegram reporter disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	newResolver := func(profile *models.CandidateProfile, job answers.JobContext) *answers.Resolver {
		return answers.NewResolver(aiClient, profile, job)
	}

	d := dispatcher.New(
		repo,
		gen,
		registry,
		manager,
		&screenshotter{uploader: uploader},
		notifier,
		newResolver,
		dispatcher.Config{
			IdleDelay:   time.Duration(cfg.IdleDelaySec) * time.Second,
			RandomOrder: cfg.ClaimOrder == "random",
			TestMode:    cfg.TestMode,
		},
		logger,
	)

	if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited", "error", err)
	}
}
