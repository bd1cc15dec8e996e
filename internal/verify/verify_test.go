package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-applyflow-automation/internal/models"
)

func TestConfirmedMatchesKnownPhrases(t *testing.T) {
	assert.True(t, Confirmed("Thank You for Applying to Acme!"))
	assert.True(t, Confirmed("Your application has been submitted."))
	assert.False(t, Confirmed("Apply now to join our team"))
	assert.False(t, Confirmed(""))
}

func TestEvaluateSubmitWithConfirmation(t *testing.T) {
	result := Evaluate(
		Snapshot{
			URL:      "https://boards.greenhouse.io/acme/jobs/123/confirmation",
			BodyText: "We have received your application.",
		},
		models.RunState{SubmitClicked: true, CVUploaded: true},
	)
	assert.Equal(t, models.StatusSuccess, result.Status)
}

func TestEvaluateNoCVIsNeverSuccess(t *testing.T) {
	result := Evaluate(
		Snapshot{
			URL:      "https://boards.greenhouse.io/acme/jobs/123",
			BodyText: "Thank you for applying to Acme!",
		},
		models.RunState{SubmitClicked: true, CVUploaded: false},
	)
	assert.Equal(t, models.StatusRetry, result.Status)
	assert.Contains(t, result.Message, "cv")
}

func TestEvaluateOffPlatformURLRetries(t *testing.T) {
	result := Evaluate(
		Snapshot{
			URL:      "https://www.acme.com/home",
			BodyText: "Thank you for applying!",
		},
		models.RunState{SubmitClicked: true, CVUploaded: true},
	)
	assert.Equal(t, models.StatusRetry, result.Status)
}

func TestApplicationURL(t *testing.T) {
	assert.True(t, ApplicationURL("https://apply.workable.com/acme/j/ABC/"))
	assert.True(t, ApplicationURL("https://jobs.lever.co/acme/uuid/apply"))
	assert.True(t, ApplicationURL("https://www.acme.com/careers/opening-42"))
	assert.False(t, ApplicationURL("https://www.acme.com/home"))
	assert.False(t, ApplicationURL(""))
}

func TestEvaluateSubmitWithoutConfirmationRetries(t *testing.T) {
	result := Evaluate(
		Snapshot{BodyText: "Apply for this position"},
		models.RunState{SubmitClicked: true},
	)
	assert.Equal(t, models.StatusRetry, result.Status)
}

func TestEvaluateCaptchaBeatsConfirmation(t *testing.T) {
	result := Evaluate(
		Snapshot{BodyText: "thank you for applying", CaptchaVisible: true},
		models.RunState{SubmitClicked: true},
	)
	assert.Equal(t, models.StatusManualRequired, result.Status)
}

func TestEvaluateExplicitVerdictWins(t *testing.T) {
	state := models.RunState{}
	state.Finish(models.StatusManualRequired, "unanswerable required question")

	result := Evaluate(Snapshot{BodyText: "thank you for applying"}, state)
	assert.Equal(t, models.StatusManualRequired, result.Status)
	assert.Equal(t, "unanswerable required question", result.Message)
}

func TestEvaluateNoSubmitRetries(t *testing.T) {
	result := Evaluate(Snapshot{BodyText: ""}, models.RunState{})
	assert.Equal(t, models.StatusRetry, result.Status)
	assert.NotEmpty(t, result.Message)
}
