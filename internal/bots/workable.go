package bots

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"go-applyflow-automation/internal/answers"
	"go-applyflow-automation/internal/browser"
	"go-applyflow-automation/internal/models"
	"go-applyflow-automation/internal/verify"
)

const workableFormSelector = "form[data-ui='application-form']"

// Workable drives apply.workable.com hosted forms. Fields live in
// [data-ui='field'] blocks inside one application form, with custom
// questions rendered as inputs, comboboxes, and selects.
type Workable struct {
	deps Deps
}

func NewWorkable(deps Deps) *Workable {
	return &Workable{deps: deps}
}

func (w *Workable) Name() string { return "workable" }

func (w *Workable) Apply(ctx context.Context, req Request) models.ApplyResult {
	page := req.Page
	log := w.deps.Log.With("bot", w.Name(), "job_id", req.Job.ID)
	state := models.RunState{}

	if _, err := page.Goto(req.Job.ResolveURL(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return models.ApplyResult{Status: models.StatusRetry, Message: fmt.Sprintf("could not open job page: %v", err)}
	}

	browser.RandomDelay(4800, 5600)
	w.acceptCookies(page)
	browser.RandomDelay(1800, 2600)

	if !w.goToApplicationTab(page) {
		log.Warn("application form not found")
		return models.ApplyResult{Status: models.StatusRetry, Message: "workable application form not found"}
	}

	browser.RandomDelay(800, 1600)
	browser.HumanScroll(page)

	w.fillBasicInfo(page, req.Profile)
	state.CVUploaded = w.uploadCV(page, req.CVPath)

	if err := w.answerCustomQuestions(ctx, page, req); err != nil {
		if errors.Is(err, answers.ErrNeedsManual) {
			state.Finish(models.StatusManualRequired, err.Error())
		} else {
			log.Warn("question loop aborted", "error", err)
		}
	}

	if w.deps.DryRun {
		return models.ApplyResult{
			Status:  models.StatusSuccess,
			Message: "dry run complete, form filled but not submitted",
		}
	}

	if !state.Finished() {
		if !state.CVUploaded {
			return models.ApplyResult{Status: models.StatusRetry, Message: "cv not uploaded on workable form"}
		}
		state.SubmitClicked = w.clickSubmit(page)
	}

	captchaVisible := turnstileVisible(page)
	if captchaVisible {
		if err := solveTurnstile(ctx, page, w.deps.Solver); err != nil {
			log.Warn("turnstile unsolved", "error", err)
		} else {
			captchaVisible = false
			browser.RandomDelay(800, 1500)
			w.clickSubmit(page)
		}
	}

	browser.RandomDelay(1500, 2500)
	return verify.Evaluate(verify.Snapshot{
		URL:            page.URL(),
		BodyText:       pageBodyText(page),
		CaptchaVisible: captchaVisible,
	}, state)
}

func (w *Workable) acceptCookies(page playwright.Page) {
	banner := page.Locator("[data-ui='cookie-consent']")
	if visible, err := banner.First().IsVisible(); err == nil && visible {
		accept := banner.Locator("[data-ui='cookie-consent-accept']")
		if n, err := accept.Count(); err == nil && n > 0 {
			accept.First().Click()
			return
		}
	}
	browser.DismissCookieBanners(page)
}

// goToApplicationTab switches from the description tab to the application
// form when the posting opens on the overview.
func (w *Workable) goToApplicationTab(page playwright.Page) bool {
	if n, err := page.Locator(workableFormSelector).Count(); err == nil && n > 0 {
		return true
	}

	tab := page.Locator("[data-ui='application-form-tab']")
	if n, err := tab.Count(); err == nil && n > 0 {
		tab.First().ScrollIntoViewIfNeeded()
		browser.RandomDelay(200, 500)
		tab.First().Click()
		browser.RandomDelay(800, 1300)
	}

	_, err := page.WaitForSelector(workableFormSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(20000),
	})
	return err == nil
}

func (w *Workable) fillBasicInfo(page playwright.Page, profile *models.CandidateProfile) {
	phone := FormatPhone(profile.Phone, profile.Country)

	w.setField(page, "input[name='firstname']", profile.FirstName)
	w.setField(page, "input[name='lastname']", profile.LastName)
	w.setField(page, "input[type='email']", profile.Email)
	w.setField(page, "input[type='tel']", phone)
	w.setField(page, "input[data-ui='address'], input#address", profile.Address())
}

func (w *Workable) setField(page playwright.Page, selector, value string) {
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
	browser.MoveMouseTo(page, field)
	browser.RandomDelay(200, 500)
	if err := browser.HumanType(field, value); err != nil {
		w.deps.Log.Warn("could not fill field", "selector", selector, "error", err)
	}
}

func (w *Workable) uploadCV(page playwright.Page, cvPath string) bool {
	if cvPath == "" {
		return false
	}
	input := page.Locator("input[data-ui='resume']")
	if n, err := input.Count(); err != nil || n == 0 {
		w.deps.Log.Warn("resume input not found")
		return false
	}

	loc := input.First()
	loc.ScrollIntoViewIfNeeded()
	browser.RandomDelay(400, 1000)

	if err := loc.SetInputFiles(cvPath); err != nil {
		w.deps.Log.Warn("resume upload failed", "error", err)
		return false
	}
	browser.RandomDelay(1500, 2500)
	return true
}

// Core identity fields are filled separately and skipped in the question loop.
var workableIdentityUI = map[string]bool{
	"firstname": true, "lastname": true, "email": true, "phone": true, "resume": true,
}

var workableIdentityNames = map[string]bool{
	"firstname": true, "first_name": true, "lastname": true, "last_name": true,
	"email": true, "phone": true,
}

func (w *Workable) answerCustomQuestions(ctx context.Context, page playwright.Page, req Request) error {
	blocks, err := page.Locator(workableFormSelector + " [data-ui='field']").All()
	if err != nil {
		return fmt.Errorf("could not enumerate form fields: %w", err)
	}
	w.deps.Log.Debug("found field blocks", "count", len(blocks))

	for _, block := range blocks {
		label := w.extractLabel(block)
		if label == "" {
			continue
		}

		inputs := block.Locator("textarea, select, input")
		if n, err := inputs.Count(); err != nil || n == 0 {
			continue
		}
		input := inputs.First()

		dataUI, _ := input.GetAttribute("data-ui")
		nameAttr, _ := input.GetAttribute("name")
		inputType, _ := input.GetAttribute("type")
		if workableIdentityUI[dataUI] || workableIdentityNames[strings.ToLower(nameAttr)] || inputType == "email" {
			continue
		}

		question := answers.Question{Label: label, Required: isRequiredField(block, input)}
		question.Short, question.MaxChars = isShortInput(input)

		if err := w.answerField(ctx, page, block, input, question, req); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workable) answerField(ctx context.Context, page playwright.Page, block, input playwright.Locator, question answers.Question, req Request) error {
	labelNorm := normalizeText(question.Label)

	// Address and location fields come straight from the profile.
	if dataUI, _ := input.GetAttribute("data-ui"); dataUI == "address" ||
		strings.Contains(labelNorm, "address") || strings.Contains(labelNorm, "location") {
		if addr := req.Profile.Address(); addr != "" {
			typeInto(page, input, addr)
		}
		return nil
	}

	if n, err := block.Locator("input[role='combobox']").Count(); err == nil && n > 0 {
		return w.handleCombobox(ctx, page, block, question, req)
	}

	tag, _ := input.Evaluate("el => el.tagName.toLowerCase()", nil)
	inputType, _ := input.GetAttribute("type")

	// Numeric salary inputs take the bare lower bound.
	if tag == "input" && inputType == "number" && strings.Contains(labelNorm, "salar") {
		answer, err := req.Resolver.AnswerText(ctx, answers.Question{Label: question.Label, Required: true, Short: true})
		if err != nil {
			return err
		}
		if answer == "" || answer == "N/A" {
			answer = "50000"
		}
		typeInto(page, input, answer)
		return nil
	}

	switch tag {
	case "select":
		options := optionTexts(input.Locator("option"))
		chosen, err := req.Resolver.PickOption(ctx, question, options)
		if err != nil {
			return err
		}
		if chosen != "" {
			selectByText(input, chosen)
		}
	case "textarea", "input":
		if inputType == "radio" || inputType == "checkbox" {
			if question.Required {
				w.clickYesNoLabel(block, true)
			}
			return nil
		}
		answer, err := req.Resolver.AnswerText(ctx, question)
		if err != nil {
			return err
		}
		if answer != "" {
			typeInto(page, input, answer)
		}
	}
	return nil
}

// handleCombobox opens the dropdown and clicks the option the resolver
// picks from the live listbox.
func (w *Workable) handleCombobox(ctx context.Context, page playwright.Page, block playwright.Locator, question answers.Question, req Request) error {
	cb := block.Locator("input[role='combobox']").First()
	cb.ScrollIntoViewIfNeeded()
	browser.RandomDelay(200, 500)
	if err := cb.Click(); err != nil {
		return nil
	}
	browser.RandomDelay(300, 500)

	listbox := page.Locator("div[role='listbox']")
	if _, err := page.WaitForSelector("div[role='listbox']", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(6000),
	}); err != nil {
		return nil
	}

	options := listbox.Locator("[role='option']")
	texts := optionTexts(options)
	if len(texts) == 0 {
		return nil
	}

	chosen, err := req.Resolver.PickOption(ctx, question, texts)
	if err != nil {
		return err
	}
	if chosen == "" {
		chosen = texts[0]
	}
	if clickOptionByText(options, chosen) {
		browser.RandomDelay(300, 600)
	}
	return nil
}

func (w *Workable) clickYesNoLabel(block playwright.Locator, yes bool) {
	labels, err := block.Locator("label").All()
	if err != nil {
		return
	}
	preferred := "yes"
	if !yes {
		preferred = "no"
	}
	for _, label := range labels {
		text, err := label.InnerText()
		if err != nil {
			continue
		}
		if strings.Contains(normalizeText(text), preferred) {
			label.Click()
			browser.RandomDelay(200, 400)
			return
		}
	}
}

func (w *Workable) extractLabel(block playwright.Locator) string {
	span := block.Locator("label span[id$='_label']")
	if n, err := span.Count(); err == nil && n > 0 {
		if text, err := span.First().InnerText(); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}

	label := block.Locator("label").First()
	if n, err := label.Count(); err == nil && n > 0 {
		if text, err := label.InnerText(); err == nil && firstLine(text) != "" {
			return firstLine(text)
		}
	}

	if text, err := block.InnerText(); err == nil {
		return firstLine(text)
	}
	return ""
}

func (w *Workable) clickSubmit(page playwright.Page) bool {
	submit := page.Locator("button[data-ui='apply-button'], button[type='submit']")
	if n, err := submit.Count(); err != nil || n == 0 {
		w.deps.Log.Warn("submit button not found")
		return false
	}
	btn := submit.First()
	btn.ScrollIntoViewIfNeeded()
	browser.RandomDelay(300, 700)
	if err := btn.Click(); err != nil {
		w.deps.Log.Warn("submit click failed", "error", err)
		return false
	}
	return true
}
