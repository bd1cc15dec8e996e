package bots

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/answers"
	"go-applyflow-automation/internal/browser"
	"go-applyflow-automation/internal/models"
	"go-applyflow-automation/internal/verify"
)

const leverParseResumeURL = "https://jobs.lever.co/parseResume"

// Lever drives jobs.lever.co postings. The description page links to the
// real form at /apply; validation is strict: the run only counts as a
// success when the apply page was reached, the CV went in, and submit was
// clicked.
type Lever struct {
	deps       Deps
	httpClient *http.Client
}

func NewLever(deps Deps) *Lever {
	return &Lever{
		deps:       deps,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *Lever) Name() string { return "lever" }

func (l *Lever) Apply(ctx context.Context, req Request) models.ApplyResult {
	page := req.Page
	log := l.deps.Log.With("bot", l.Name(), "job_id", req.Job.ID)
	state := models.RunState{}

	if _, err := page.Goto(req.Job.ResolveURL(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return models.ApplyResult{Status: models.StatusRetry, Message: fmt.Sprintf("could not open job page: %v", err)}
	}

	if !l.goToApplyPage(page) {
		return models.ApplyResult{Status: models.StatusRetry, Message: "did not reach lever apply page"}
	}

	browser.RandomDelay(1200, 2000)
	browser.DismissCookieBanners(page)

	l.fillIdentity(page, req.Profile)
	state.CVUploaded = l.uploadCV(ctx, page, req.CVPath, log)

	if err := l.answerQuestions(ctx, page, req); err != nil {
		if errors.Is(err, answers.ErrNeedsManual) {
			state.Finish(models.StatusManualRequired, err.Error())
		} else {
			log.Warn("question loop aborted", "error", err)
		}
	}

	if l.deps.DryRun {
		return models.ApplyResult{
			Status:  models.StatusSuccess,
			Message: "dry run complete, form filled but not submitted",
		}
	}

	if !state.Finished() {
		if !state.CVUploaded {
			return models.ApplyResult{Status: models.StatusRetry, Message: "cv was not uploaded"}
		}
		if !strings.Contains(page.URL(), "/apply") {
			return models.ApplyResult{Status: models.StatusRetry, Message: "navigated away from lever apply page"}
		}
		state.SubmitClicked = l.clickSubmit(page)
		page.WaitForTimeout(4000)
	}

	return verify.Evaluate(verify.Snapshot{
		URL:            page.URL(),
		BodyText:       pageBodyText(page),
		CaptchaVisible: turnstileVisible(page),
	}, state)
}

// goToApplyPage navigates from the posting preview to its /apply form.
func (l *Lever) goToApplyPage(page playwright.Page) bool {
	if strings.Contains(page.URL(), "/apply") {
		return true
	}

	link := page.Locator("a.postings-btn[href*='/apply'], a[href*='/apply']")
	if n, err := link.Count(); err == nil && n > 0 {
		if href, err := link.First().GetAttribute("href"); err == nil && href != "" {
			if _, err := page.Goto(href, playwright.PageGotoOptions{Timeout: playwright.Float(60000)}); err == nil {
				page.WaitForTimeout(1500)
				return strings.Contains(page.URL(), "/apply")
			}
		}
	}

	// Postings without a preview link accept direct /apply navigation.
	target := strings.TrimSuffix(page.URL(), "/") + "/apply"
	if _, err := page.Goto(target, playwright.PageGotoOptions{Timeout: playwright.Float(60000)}); err != nil {
		return false
	}
	page.WaitForTimeout(1500)
	return strings.Contains(page.URL(), "/apply")
}

func (l *Lever) fillIdentity(page playwright.Page, profile *models.CandidateProfile) {
	fill := func(selector, value string) {
		if value == "" {
			return
		}
		loc := page.Locator(selector)
		if n, err := loc.Count(); err != nil || n == 0 {
			return
		}
		field := loc.First()
		field.ScrollIntoViewIfNeeded()
		browser.RandomDelay(300, 700)
		field.Fill(value)
	}

	fill("input[name='name']", profile.FullName())
	fill("input[name='email']", profile.Email)
	fill("input[name='phone']", FormatPhone(profile.Phone, profile.Country))
	fill("input[name='location']", profile.Address())
	fill("input[name='org']", profile.BaseResume.CurrentEmployer())
	fill("input[name='urls[LinkedIn]']", profile.BaseResume.AdditionalDetails.LinkedIn)
	fill("input[name='urls[GitHub]']", profile.BaseResume.AdditionalDetails.GitHub)
	fill("input[name='urls[Portfolio]']", profile.BaseResume.AdditionalDetails.Portfolio)

	if profile.CoverLetter != "" {
		cl := page.Locator("textarea[name='comments']")
		if n, err := cl.Count(); err == nil && n > 0 {
			cl.First().Fill(profile.CoverLetter)
		}
	}
}

// uploadCV sets the file input, with the parseResume API as fallback when
// the browser upload does not take.
func (l *Lever) uploadCV(ctx context.Context, page playwright.Page, cvPath string, log *slog.Logger) bool {
	if cvPath == "" {
		return false
	}

	input := page.Locator("input[type='file'][name='resume'], input[type='file']")
	if n, err := input.Count(); err == nil && n > 0 {
		loc := input.First()
		loc.ScrollIntoViewIfNeeded()
		browser.RandomDelay(400, 1000)
		if err := loc.SetInputFiles(cvPath); err == nil {
			browser.RandomDelay(1500, 2500)
			return true
		}
		log.Warn("browser resume upload failed, trying direct api")
	}

	return l.directResumeUpload(ctx, page, cvPath, log)
}

type leverParseResult struct {
	ResumeStorageID string `json:"resumeStorageId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
}

// directResumeUpload posts the CV straight to Lever's parseResume endpoint
// and writes the returned storage id into the form's hidden field.
func (l *Lever) directResumeUpload(ctx context.Context, page playwright.Page, cvPath string, log *slog.Logger) bool {
	accountField := page.Locator("input[name='accountId']")
	accountID, err := accountField.InputValue()
	if err != nil || accountID == "" {
		log.Warn("lever accountId not found, cannot use direct upload")
		return false
	}

	parsed, err := l.parseResume(ctx, cvPath, accountID)
	if err != nil {
		log.Warn("direct resume upload failed", "error", err)
		return false
	}
	if parsed.ResumeStorageID == "" {
		log.Warn("parseResume returned no resumeStorageId")
		return false
	}

	hidden := page.Locator("input[name='resumeStorageId']")
	if n, err := hidden.Count(); err != nil || n == 0 {
		return false
	}
	if err := hidden.First().Fill(parsed.ResumeStorageID); err != nil {
		return false
	}

	// Make the widget reflect the upload so the form does not look broken
	// in screenshots.
	page.Evaluate(`() => {
		const filename = document.querySelector('.application-question.resume .filename');
		const defaultLabel = document.querySelector('.application-question.resume .default-label');
		const success = document.querySelector('.resume-upload-success');
		const failure = document.querySelector('.resume-upload-failure');
		if (failure) failure.style.display = 'none';
		if (success) success.style.display = 'inline';
		if (defaultLabel) defaultLabel.style.display = 'none';
		if (filename) filename.textContent = 'CV uploaded';
	}`)
	return true
}

func (l *Lever) parseResume(ctx context.Context, cvPath, accountID string) (*leverParseResult, error) {
	f, err := os.Open(cvPath)
	if err != nil {
		return nil, fmt.Errorf("could not open cv: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("resume", filepath.Base(cvPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := writer.WriteField("accountId", accountID); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, leverParseResumeURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parseResume request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parseResume returned status %d", resp.StatusCode)
	}

	var parsed leverParseResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("could not decode parseResume response: %w", err)
	}
	return &parsed, nil
}

// answerQuestions walks Lever's application-question blocks. Identity and
// resume blocks are skipped; the rest route through the resolver.
func (l *Lever) answerQuestions(ctx context.Context, page playwright.Page, req Request) error {
	blocks, err := page.Locator("li.application-question, div.application-question").All()
	if err != nil {
		return fmt.Errorf("could not enumerate questions: %w", err)
	}

	for _, block := range blocks {
		class, _ := block.GetAttribute("class")
		if strings.Contains(class, "resume") || strings.Contains(class, "name") ||
			strings.Contains(class, "email") || strings.Contains(class, "phone") {
			continue
		}

		labelLoc := block.Locator(".application-label, label")
		label := ""
		if n, err := labelLoc.Count(); err == nil && n > 0 {
			if text, err := labelLoc.First().InnerText(); err == nil {
				label = firstLine(text)
			}
		}
		if label == "" {
			continue
		}

		question := answers.Question{
			Label:    label,
			Required: strings.Contains(label, "✱") || strings.Contains(label, "*"),
		}

		sel := block.Locator("select")
		if n, err := sel.Count(); err == nil && n > 0 {
			options := optionTexts(sel.First().Locator("option"))
			chosen, err := req.Resolver.PickOption(ctx, question, options)
			if err != nil {
				return err
			}
			if chosen != "" {
				selectByText(sel.First(), chosen)
			}
			browser.RandomDelay(400, 900)
			continue
		}

		radios := block.Locator("input[type='radio'], input[type='checkbox']")
		if n, err := radios.Count(); err == nil && n > 0 {
			if err := l.handleChoiceGroup(ctx, block, question, req); err != nil {
				return err
			}
			browser.RandomDelay(400, 900)
			continue
		}

		inputs := block.Locator("textarea, input[type='text'], input:not([type])")
		if n, err := inputs.Count(); err != nil || n == 0 {
			continue
		}
		input := inputs.First()
		question.Short, question.MaxChars = isShortInput(input)

		answer, err := req.Resolver.AnswerText(ctx, question)
		if err != nil {
			return err
		}
		if answer != "" {
			typeInto(page, input, answer)
		}
		browser.RandomDelay(600, 1200)
	}
	return nil
}

func (l *Lever) handleChoiceGroup(ctx context.Context, block playwright.Locator, question answers.Question, req Request) error {
	labels, err := block.Locator("label").All()
	if err != nil || len(labels) == 0 {
		return nil
	}

	texts := make([]string, 0, len(labels))
	byText := make(map[string]playwright.Locator, len(labels))
	for _, lbl := range labels {
		text, err := lbl.InnerText()
		if err != nil {
			continue
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || trimmed == question.Label {
			continue
		}
		texts = append(texts, trimmed)
		byText[trimmed] = lbl
	}
	if len(texts) == 0 {
		return nil
	}

	chosen, err := req.Resolver.PickOption(ctx, question, texts)
	if err != nil {
		return err
	}
	if chosen == "" {
		return nil
	}
	if lbl, ok := byText[chosen]; ok {
		lbl.Click()
		browser.RandomDelay(200, 500)
	}
	return nil
}

func (l *Lever) clickSubmit(page playwright.Page) bool {
	submit := page.Locator("button[type='submit'], button#btn-submit, button:has-text('Submit application')")
	if n, err := submit.Count(); err != nil || n == 0 {
		return false
	}
	btn := submit.First()
	btn.ScrollIntoViewIfNeeded()
	browser.RandomDelay(400, 900)
	return btn.Click() == nil
}
