package answers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-applyflow-automation/internal/ai"
	"go-applyflow-automation/internal/models"
)

// stubAI records what reaches the generative layer so tests can assert on
// sanitization and fallback order.
type stubAI struct {
	answer      string
	answerErr   error
	pick        string
	pickErr     error
	checkboxes  []string
	lastAnswer  *ai.AnswerRequest
	lastPick    *ai.PickRequest
	answerCalls int
	pickCalls   int
}

func (s *stubAI) TailorResume(ctx context.Context, baseResumeJSON, jobDescription string) (*models.Resume, error) {
	return &models.Resume{}, nil
}

func (s *stubAI) AnswerQuestion(ctx context.Context, req ai.AnswerRequest) (string, error) {
	s.answerCalls++
	s.lastAnswer = &req
	return s.answer, s.answerErr
}

func (s *stubAI) PickOption(ctx context.Context, req ai.PickRequest) (string, error) {
	s.pickCalls++
	s.lastPick = &req
	return s.pick, s.pickErr
}

func (s *stubAI) PickCheckboxLabels(ctx context.Context, req ai.PickRequest) ([]string, error) {
	s.lastPick = &req
	return s.checkboxes, s.pickErr
}

func boolPtr(b bool) *bool { return &b }

func testProfile() *models.CandidateProfile {
	return &models.CandidateProfile{
		UserID:    7,
		FirstName: "Dana",
		LastName:  "Kovacs",
		Email:     "dana@example.com",
		Phone:     "+36 20 123 4567",
		City:      "Budapest",
		Country:   "Hungary",
		BaseResume: models.Resume{
			Summary:   "Backend engineer",
			Skills:    []string{"Go", "Postgres"},
			JobTitles: []string{"Backend Engineer"},
			Experience: []models.Experience{
				{Company: "Acme Corp", Role: "Engineer", StartDate: "2021-01", EndDate: "Present"},
			},
			AdditionalDetails: models.AdditionalDetails{
				LinkedIn: "https://linkedin.com/in/dana",
				GitHub:   "https://github.com/dana",
			},
		},
		Answers: models.ProfileAnswers{
			NoticePeriod:        "1 month",
			YearsExperience:     "6",
			DesiredSalary:       "55,000 - 65,000 EUR",
			LegallyAllowed:      boolPtr(true),
			SponsorshipRequired: boolPtr(false),
			WillingToRelocate:   boolPtr(false),
		},
	}
}

func newTestResolver(stub *stubAI) *Resolver {
	return NewResolver(stub, testProfile(), JobContext{Title: "Go Developer", Company: "Beta Ltd"})
}

func TestAnswerTextIdentityFields(t *testing.T) {
	stub := &stubAI{}
	r := newTestResolver(stub)
	ctx := context.Background()

	cases := map[string]string{
		"First Name":            "Dana",
		"Last name *":           "Kovacs",
		"Email address":         "dana@example.com",
		"Phone number":          "+36 20 123 4567",
		"LinkedIn profile URL":  "https://linkedin.com/in/dana",
		"Current city":          "Budapest",
		"What is your address?": "Budapest, Hungary",
	}
	for label, want := range cases {
		got, err := r.AnswerText(ctx, Question{Label: label})
		require.NoError(t, err, label)
		assert.Equal(t, want, got, label)
	}
	assert.Zero(t, stub.answerCalls, "identity fields must not hit the generative layer")
}

func TestAnswerTextProfileScreeners(t *testing.T) {
	stub := &stubAI{}
	r := newTestResolver(stub)
	ctx := context.Background()

	got, err := r.AnswerText(ctx, Question{Label: "What is your notice period?"})
	require.NoError(t, err)
	assert.Equal(t, "1 month", got)

	got, err = r.AnswerText(ctx, Question{Label: "Current employer"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got)

	got, err = r.AnswerText(ctx, Question{Label: "Salary expectations"})
	require.NoError(t, err)
	assert.Equal(t, "55000", got, "salary answers use the lower bound")

	got, err = r.AnswerText(ctx, Question{Label: "Are you authorized to work in the EU?"})
	require.NoError(t, err)
	assert.Equal(t, "Yes", got)

	assert.Zero(t, stub.answerCalls)
}

func TestAnswerTextSafetyRules(t *testing.T) {
	r := newTestResolver(&stubAI{})
	ctx := context.Background()

	got, err := r.AnswerText(ctx, Question{Label: "Are you bound by a non-compete agreement?"})
	require.NoError(t, err)
	assert.Equal(t, "No", got)

	got, err = r.AnswerText(ctx, Question{Label: "Have you previously interviewed with us?"})
	require.NoError(t, err)
	assert.Equal(t, "No", got)

	got, err = r.AnswerText(ctx, Question{Label: "I certify that the information provided is accurate"})
	require.NoError(t, err)
	assert.Equal(t, "N/A", got)
}

func TestAnswerTextSensitiveNeverGenerated(t *testing.T) {
	stub := &stubAI{answer: "should never be used"}
	r := newTestResolver(stub)
	ctx := context.Background()

	got, err := r.AnswerText(ctx, Question{Label: "What is your gender identity?", Required: true})
	require.NoError(t, err)
	assert.Equal(t, "Prefer not to say", got)
	assert.Zero(t, stub.answerCalls)

	// Stored answer wins when present.
	r.profile.Answers.VeteranStatus = "I am not a protected veteran"
	got, err = r.AnswerText(ctx, Question{Label: "Veteran status"})
	require.NoError(t, err)
	assert.Equal(t, "I am not a protected veteran", got)
	assert.Zero(t, stub.answerCalls)
}

func TestAnswerTextOptionalSensitiveStaysBlank(t *testing.T) {
	stub := &stubAI{answer: "should never be used"}
	r := newTestResolver(stub)

	got, err := r.AnswerText(context.Background(), Question{Label: "What is your gender identity?", Required: false})
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Zero(t, stub.answerCalls)
}

func TestClampCountsRunes(t *testing.T) {
	assert.Equal(t, "Pretensão", clamp("Pretensão salarial", 9))
	assert.Equal(t, "héllo", clamp("héllo", 10))
	assert.Equal(t, "héllo", clamp("héllo", 0))
}

func TestAnswerTextGenerativeFallback(t *testing.T) {
	stub := &stubAI{answer: "I led the migration of a monolith to Go services."}
	r := newTestResolver(stub)

	got, err := r.AnswerText(context.Background(), Question{Label: "Why do you want to work here?", MaxChars: 300})
	require.NoError(t, err)
	assert.Equal(t, stub.answer, got)
	require.NotNil(t, stub.lastAnswer)

	// Protected characteristics must not leak into the payload.
	for key := range stub.lastAnswer.ProfileContext {
		assert.NotContains(t, []string{"race", "gender", "disability_status", "veteran_status"}, key)
	}
}

func TestAnswerTextRequiredFloor(t *testing.T) {
	stub := &stubAI{answerErr: errors.New("model unavailable")}
	r := newTestResolver(stub)
	ctx := context.Background()

	got, err := r.AnswerText(ctx, Question{Label: "Describe a project you are proud of", Required: true})
	require.NoError(t, err)
	assert.Equal(t, "N/A", got)

	got, err = r.AnswerText(ctx, Question{Label: "Anything else to add?", Required: false})
	require.NoError(t, err)
	assert.Empty(t, got, "optional questions are skipped when generation fails")
}

func TestPickOptionDeterministicBranches(t *testing.T) {
	stub := &stubAI{}
	r := newTestResolver(stub)
	ctx := context.Background()

	got, err := r.PickOption(ctx, Question{Label: "Do you require visa sponsorship?"}, []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, "No", got)

	got, err = r.PickOption(ctx, Question{Label: "Are you legally allowed to work here?"}, []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, "Yes", got)

	got, err = r.PickOption(ctx, Question{Label: "How many years of experience do you have?"},
		[]string{"0-2 years", "3-5 years", "5-10 years", "10+ years"})
	require.NoError(t, err)
	assert.Equal(t, "5-10 years", got)

	assert.Zero(t, stub.pickCalls)
}

func TestPickOptionSensitivePrefersDecline(t *testing.T) {
	stub := &stubAI{pick: "White"}
	r := newTestResolver(stub)

	got, err := r.PickOption(context.Background(),
		Question{Label: "Race/Ethnicity", Required: true},
		[]string{"White", "Asian", "I prefer not to answer"})
	require.NoError(t, err)
	assert.Equal(t, "I prefer not to answer", got)
	assert.Zero(t, stub.pickCalls)
}

func TestPickOptionSensitiveWithoutEscapeNeedsManual(t *testing.T) {
	r := newTestResolver(&stubAI{})

	_, err := r.PickOption(context.Background(),
		Question{Label: "Disability status", Required: true},
		[]string{"Yes, I have a disability", "No, I do not have a disability"})
	assert.ErrorIs(t, err, ErrNeedsManual)
}

func TestPickOptionFallsBackToAI(t *testing.T) {
	stub := &stubAI{pick: "Job board"}
	r := newTestResolver(stub)

	got, err := r.PickOption(context.Background(),
		Question{Label: "How did you hear about us?"},
		[]string{"Referral", "Job board", "Social media"})
	require.NoError(t, err)
	assert.Equal(t, "Job board", got)
	assert.Equal(t, 1, stub.pickCalls)
}

func TestPickMultiRequiredPicksExactlyOne(t *testing.T) {
	stub := &stubAI{pickErr: errors.New("model unavailable")}
	r := newTestResolver(stub)

	got, err := r.PickMulti(context.Background(),
		Question{Label: "Which areas interest you?", Required: true},
		[]string{"Backend", "Frontend", "DevOps"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPickMultiAgreementChecks(t *testing.T) {
	r := newTestResolver(&stubAI{})

	got, err := r.PickMulti(context.Background(),
		Question{Label: "By submitting you agree to our terms and conditions", Required: true},
		[]string{"I agree"})
	require.NoError(t, err)
	assert.Equal(t, []string{"I agree"}, got)
}

func TestNumericOption(t *testing.T) {
	opts := []string{"Less than 30000", "30000-50000", "50000-70000", "70000 or more"}
	assert.Equal(t, "50000-70000", numericOption(opts, "55000"))
	assert.Equal(t, "", numericOption(opts, ""))
}

func TestSalaryLowerBound(t *testing.T) {
	assert.Equal(t, "55000", salaryLowerBound("55,000 - 65,000 EUR"))
	assert.Equal(t, "60000", salaryLowerBound("60000"))
	assert.Equal(t, "negotiable", salaryLowerBound("negotiable"))
}
