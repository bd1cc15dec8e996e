// Package verify decides what actually happened after a bot walked an
// application form. The page itself is the source of truth: a submit click
// without confirmation copy is not a success.
package verify

import (
	"strings"

	"go-applyflow-automation/internal/models"
)

// Snapshot is what the bot observed on its final page.
type Snapshot struct {
	URL            string
	BodyText       string
	CaptchaVisible bool
}

var confirmationPhrases = []string{
	"thank you for applying",
	"application submitted",
	"application has been submitted",
	"your application was sent",
	"we have received your application",
	"we've received your application",
	"successfully submitted",
	"application received",
	"thanks for applying",
}

// Confirmed reports whether the page copy contains a known post-submit
// confirmation phrase.
func Confirmed(bodyText string) bool {
	text := strings.ToLower(bodyText)
	for _, phrase := range confirmationPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

var applicationURLHints = []string{
	"workable.com",
	"greenhouse.io",
	"grnhse",
	"lever.co",
	"/apply",
	"/application",
	"/jobs",
	"/careers",
	"/thanks",
	"confirmation",
}

// ApplicationURL reports whether the final URL still belongs to an
// application flow. Embedded forms end up on company career pages, so path
// hints count alongside the ATS hosts.
func ApplicationURL(url string) bool {
	u := strings.ToLower(url)
	for _, hint := range applicationURLHints {
		if strings.Contains(u, hint) {
			return true
		}
	}
	return false
}

// Evaluate maps the final page state and the bot's run state onto an outcome.
//
// Precedence: an explicit finish verdict set by the bot wins, then a visible
// CAPTCHA. Success needs all of: submit clicked, the CV uploaded,
// confirmation copy on the page, and a final URL still inside an application
// flow. Anything short of that is a retry.
func Evaluate(snap Snapshot, state models.RunState) models.ApplyResult {
	if state.Finished() {
		return models.ApplyResult{Status: state.FinishStatus, Message: state.FinishMessage}
	}

	if snap.CaptchaVisible {
		return models.ApplyResult{
			Status:  models.StatusManualRequired,
			Message: "captcha challenge blocked submission",
		}
	}

	if state.SubmitClicked && Confirmed(snap.BodyText) {
		if !state.CVUploaded {
			return models.ApplyResult{
				Status:  models.StatusRetry,
				Message: "submission confirmed but cv was never uploaded",
			}
		}
		if !ApplicationURL(snap.URL) {
			return models.ApplyResult{
				Status:  models.StatusRetry,
				Message: "confirmation copy found outside the application flow",
			}
		}
		return models.ApplyResult{Status: models.StatusSuccess, Message: "application submitted"}
	}

	if state.SubmitClicked {
		return models.ApplyResult{
			Status:  models.StatusRetry,
			Message: "submit clicked but no confirmation found",
		}
	}

	return models.ApplyResult{
		Status:  models.StatusRetry,
		Message: "submission flow did not complete",
	}
}
