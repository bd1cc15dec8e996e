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

// Greenhouse drives hosted, embedded, and self-hosted Greenhouse forms.
// The form may live on the page, behind an Apply button, or inside a
// grnhse iframe, so detection walks all three.
type Greenhouse struct {
	deps Deps
}

func NewGreenhouse(deps Deps) *Greenhouse {
	return &Greenhouse{deps: deps}
}

func (g *Greenhouse) Name() string { return "greenhouse" }

var greenhouseFormSelectors = []string{
	"form#application-form",
	"form.application--form",
	"form[action*='apply']",
	"form[action*='/applications']",
	"form[action*='job']",
}

func (g *Greenhouse) Apply(ctx context.Context, req Request) models.ApplyResult {
	page := req.Page
	log := g.deps.Log.With("bot", g.Name(), "job_id", req.Job.ID)
	state := models.RunState{}

	if _, err := page.Goto(req.Job.ResolveURL(), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	}); err != nil {
		return models.ApplyResult{Status: models.StatusRetry, Message: fmt.Sprintf("could not open job page: %v", err)}
	}

	page.WaitForTimeout(1500)
	browser.DismissCookieBanners(page)
	browser.IdleWander(page)

	// Standalone postings hide the form behind an Apply button.
	applyBtn := page.Locator("button:has-text('Apply'), a:has-text('Apply')")
	if n, err := applyBtn.Count(); err == nil && n > 0 {
		applyBtn.First().Click()
		page.WaitForTimeout(2000)
	}

	form, err := g.waitForForm(page)
	if err != nil {
		log.Warn("form not detected", "error", err)
		return models.ApplyResult{Status: models.StatusRetry, Message: "no greenhouse form detected"}
	}

	g.safeFill(form, "#first_name, input[name='first_name']", req.Profile.FirstName)
	g.safeFill(form, "#last_name, input[name='last_name']", req.Profile.LastName)
	g.safeFill(form, "#email, input[name='email']", req.Profile.Email)
	g.safeFill(form, "#phone, input[name='phone'], input[type='tel']",
		FormatPhone(req.Profile.Phone, req.Profile.Country))

	state.CVUploaded = g.uploadResume(form, req.CVPath)

	if err := g.handleCustomQuestions(ctx, form, req); err != nil {
		if errors.Is(err, answers.ErrNeedsManual) {
			state.Finish(models.StatusManualRequired, err.Error())
		} else {
			log.Warn("question loop aborted", "error", err)
		}
	}

	if g.deps.DryRun {
		return models.ApplyResult{
			Status:  models.StatusSuccess,
			Message: "dry run complete, form filled but not submitted",
		}
	}

	if !state.Finished() {
		submit := form.Locator("button[type='submit'], input[type='submit'], button:has-text('Submit'), input[value*='Apply']")
		if n, err := submit.Count(); err != nil || n == 0 {
			return models.ApplyResult{Status: models.StatusFailed, Message: "submit button not found"}
		}
		submit.First().ScrollIntoViewIfNeeded()
		browser.RandomDelay(400, 900)
		if err := submit.First().Click(); err == nil {
			state.SubmitClicked = true
		}
		page.WaitForTimeout(4000)
	}

	body := pageBodyText(page)
	if state.SubmitClicked && !verify.Confirmed(body) && !turnstileVisible(page) {
		// A silent post-submit page is ambiguous; hand it to a human
		// rather than re-submitting a possibly accepted application.
		return models.ApplyResult{Status: models.StatusManualRequired, Message: "unknown submission state"}
	}

	return verify.Evaluate(verify.Snapshot{
		URL:            page.URL(),
		BodyText:       body,
		CaptchaVisible: turnstileVisible(page),
	}, state)
}

// waitForForm polls for a recognizable application form on the page or in
// a greenhouse iframe.
func (g *Greenhouse) waitForForm(page playwright.Page) (playwright.Locator, error) {
	for attempt := 0; attempt < 20; attempt++ {
		for _, sel := range greenhouseFormSelectors {
			form := page.Locator(sel)
			if n, err := form.Count(); err == nil && n > 0 {
				return form.First(), nil
			}
		}

		forms, err := page.Locator("form").All()
		if err == nil {
			for _, f := range forms {
				if n, err := f.Locator("input[name='first_name'], input#first_name, input[name='last_name'], input[name='email']").Count(); err == nil && n > 0 {
					return f, nil
				}
				// A form with this many fields is the application itself.
				if n, err := f.Locator("input, textarea, select").Count(); err == nil && n > 10 {
					return f, nil
				}
			}
		}

		for _, frame := range page.Frames() {
			if !strings.Contains(strings.ToLower(frame.URL()), "greenhouse") &&
				!strings.Contains(strings.ToLower(frame.URL()), "grnhse") {
				continue
			}
			form := frame.Locator("form")
			if n, err := form.Locator("input, textarea, select").Count(); err == nil && n > 5 {
				return form.First(), nil
			}
		}

		page.WaitForTimeout(500)
	}
	return nil, fmt.Errorf("no application form detected after retries")
}

func (g *Greenhouse) safeFill(form playwright.Locator, selector, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	loc := form.Locator(selector)
	if n, err := loc.Count(); err != nil || n == 0 {
		return
	}
	field := loc.First()
	field.ScrollIntoViewIfNeeded()
	browser.RandomDelay(300, 700)
	if err := field.Fill(value); err != nil {
		g.deps.Log.Warn("could not fill field", "selector", selector, "error", err)
	}
}

func (g *Greenhouse) uploadResume(form playwright.Locator, cvPath string) bool {
	if cvPath == "" {
		return false
	}
	input := form.Locator("input[type='file']")
	if n, err := input.Count(); err != nil || n == 0 {
		g.deps.Log.Warn("resume input not found")
		return false
	}
	if err := input.First().SetInputFiles(cvPath); err != nil {
		g.deps.Log.Warn("resume upload failed", "error", err)
		return false
	}
	browser.RandomDelay(1500, 2500)
	return true
}

var greenhouseIdentity = map[string]bool{
	"first_name": true, "last_name": true, "email": true, "phone": true,
}

func (g *Greenhouse) handleCustomQuestions(ctx context.Context, form playwright.Locator, req Request) error {
	elements, err := form.Locator("input, textarea, select").All()
	if err != nil {
		return fmt.Errorf("could not enumerate form fields: %w", err)
	}

	handledGroups := map[string]bool{}

	for _, element := range elements {
		visible, err := element.IsVisible()
		if err != nil || !visible {
			continue
		}
		if box, err := element.BoundingBox(); err != nil || box == nil || box.Width < 3 || box.Height < 3 {
			continue
		}

		name, _ := element.GetAttribute("name")
		id, _ := element.GetAttribute("id")
		etype, _ := element.GetAttribute("type")
		cssClass, _ := element.GetAttribute("class")
		if greenhouseIdentity[name] || greenhouseIdentity[id] {
			continue
		}
		if etype == "hidden" || etype == "submit" || etype == "button" || etype == "file" {
			continue
		}
		// intl-tel-input renders helper fields around the phone box.
		if strings.Contains(cssClass, "iti__") {
			continue
		}

		label := g.findLabel(form, element)
		labelNorm := normalizeText(strings.TrimRight(label, "*"))
		if labelNorm == "first name" || labelNorm == "last name" || labelNorm == "email" {
			continue
		}

		question := answers.Question{
			Label:    label,
			Required: isRequiredField(form, element) || strings.Contains(label, "*"),
		}
		question.Short, question.MaxChars = isShortInput(element)

		tag, _ := element.Evaluate("e => e.tagName.toLowerCase()", nil)
		role, _ := element.GetAttribute("role")

		// React-select inputs must be handled before plain input logic.
		if role == "combobox" || strings.Contains(cssClass, "select__input") {
			if err := g.handleReactSelect(ctx, req.Page, element, question, req); err != nil {
				return err
			}
			browser.RandomDelay(900, 1400)
			continue
		}

		switch {
		case tag == "select":
			options := optionTexts(element.Locator("option"))
			chosen, err := req.Resolver.PickOption(ctx, question, options)
			if err != nil {
				return err
			}
			if chosen != "" {
				selectByText(element, chosen)
			}
		case tag == "input" && etype == "checkbox":
			groupKey, done, err := g.handleCheckboxGroup(ctx, form, element, req, handledGroups)
			if err != nil {
				return err
			}
			if done {
				handledGroups[groupKey] = true
				continue
			}
			// Lone checkboxes are consent boxes.
			element.Check()
		case tag == "input" && etype == "radio":
			if question.Required {
				element.Check()
			}
		case tag == "textarea", tag == "input":
			answer, err := req.Resolver.AnswerText(ctx, question)
			if err != nil {
				return err
			}
			if answer == "" && question.Required {
				answer = "N/A"
			}
			if answer != "" {
				element.Fill(answer)
			}
		}

		browser.RandomDelay(2300, 3400)
	}
	return nil
}

// handleReactSelect opens the combobox and picks from the floating menu.
func (g *Greenhouse) handleReactSelect(ctx context.Context, page playwright.Page, element playwright.Locator, question answers.Question, req Request) error {
	element.ScrollIntoViewIfNeeded()
	browser.RandomDelay(200, 500)
	if err := element.Click(); err != nil {
		return nil
	}
	browser.RandomDelay(400, 800)

	menu := page.Locator("div[class*='select__menu'] [class*='option'], div[role='listbox'] [role='option']")
	texts := optionTexts(menu)
	if len(texts) == 0 {
		page.Keyboard().Press("Escape")
		return nil
	}

	chosen, err := req.Resolver.PickOption(ctx, question, texts)
	if err != nil {
		page.Keyboard().Press("Escape")
		return err
	}
	if chosen == "" {
		page.Keyboard().Press("Escape")
		return nil
	}
	clickOptionByText(menu, chosen)
	return nil
}

// handleCheckboxGroup resolves a fieldset of checkboxes in one pass. Returns
// the group key and whether the element belonged to a handled group.
func (g *Greenhouse) handleCheckboxGroup(ctx context.Context, form, element playwright.Locator, req Request, handled map[string]bool) (string, bool, error) {
	fieldset := element.Locator("xpath=ancestor::fieldset[1]")
	if n, err := fieldset.Count(); err != nil || n == 0 {
		return "", false, nil
	}

	legend := fieldset.Locator("legend")
	questionText := ""
	if n, err := legend.Count(); err == nil && n > 0 {
		if text, err := legend.First().InnerText(); err == nil {
			questionText = strings.TrimSpace(text)
		}
	}
	if questionText == "" {
		return "", false, nil
	}
	if handled[questionText] {
		return questionText, true, nil
	}

	boxes, err := fieldset.Locator("input[type='checkbox']").All()
	if err != nil || len(boxes) < 2 {
		return "", false, nil
	}

	labels := make([]string, 0, len(boxes))
	byLabel := make(map[string]playwright.Locator, len(boxes))
	for _, box := range boxes {
		label := g.findLabel(form, box)
		if label == "" || label == "Question" {
			continue
		}
		labels = append(labels, label)
		byLabel[label] = box
	}
	if len(labels) < 2 {
		return "", false, nil
	}

	question := answers.Question{Label: questionText, Required: strings.Contains(questionText, "*")}
	selected, err := req.Resolver.PickMulti(ctx, question, labels)
	if err != nil {
		return "", false, err
	}

	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	for label, box := range byLabel {
		if chosen[label] {
			box.Check()
		} else {
			box.Uncheck()
		}
		browser.RandomDelay(150, 400)
	}
	return questionText, true, nil
}

// findLabel tries label[for], ancestor labels, and labelled wrappers.
func (g *Greenhouse) findLabel(form, element playwright.Locator) string {
	if id, err := element.GetAttribute("id"); err == nil && id != "" {
		lbl := form.Locator(fmt.Sprintf("label[for='%s']", id))
		if n, err := lbl.Count(); err == nil && n > 0 {
			if text, err := lbl.First().InnerText(); err == nil && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
	}

	wrapper := element.Locator("xpath=ancestor::label")
	if n, err := wrapper.Count(); err == nil && n > 0 {
		if text, err := wrapper.First().InnerText(); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}

	labelled := element.Locator("xpath=ancestor::*[label][1]")
	if n, err := labelled.Count(); err == nil && n > 0 {
		if text, err := labelled.Locator("label").First().InnerText(); err == nil && strings.TrimSpace(text) != "" {
			return firstLine(text)
		}
	}

	return "Question"
}
