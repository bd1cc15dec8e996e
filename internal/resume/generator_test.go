package resume

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-applyflow-automation/internal/ai"
	"go-applyflow-automation/internal/models"
)

type stubTailor struct {
	tailored *models.Resume
	err      error
}

func (s *stubTailor) TailorResume(ctx context.Context, baseResumeJSON, jobDescription string) (*models.Resume, error) {
	return s.tailored, s.err
}

func (s *stubTailor) AnswerQuestion(ctx context.Context, req ai.AnswerRequest) (string, error) {
	return "", nil
}

func (s *stubTailor) PickOption(ctx context.Context, req ai.PickRequest) (string, error) {
	return "", nil
}

func (s *stubTailor) PickCheckboxLabels(ctx context.Context, req ai.PickRequest) ([]string, error) {
	return nil, nil
}

type stubRenderer struct {
	err error
}

func (s *stubRenderer) Render(resume *models.Resume) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

type stubUploader struct {
	err      error
	lastPath string
}

func (s *stubUploader) Upload(ctx context.Context, localPath, folder, filename string) (string, error) {
	s.lastPath = localPath
	if s.err != nil {
		return "", s.err
	}
	return "https://bucket.s3.eu-west-1.amazonaws.com/" + folder + "/" + filename, nil
}

func baseResume() models.Resume {
	return models.Resume{
		FirstName: "Dana",
		LastName:  "Kovacs",
		Email:     "dana@example.com",
		Summary:   "Backend engineer with six years of Go.",
		Skills:    []string{"Go", "Postgres", "AWS"},
		Experience: []models.Experience{
			{Company: "Acme Corp", Role: "Engineer", StartDate: "2021-01", EndDate: "Present", Description: "Built services."},
			{Company: "Globex", Role: "Junior Engineer", StartDate: "2019-06", EndDate: "2020-12"},
		},
		Education: []models.Education{
			{Degree: "BSc Computer Science", Institution: "BME", GraduationYear: "2019"},
		},
		Certifications: []string{"AWS SAA"},
	}
}

func testGenerator(tailor *stubTailor) (*Generator, *stubUploader) {
	uploader := &stubUploader{}
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewGenerator(tailor, &stubRenderer{}, uploader, log), uploader
}

func testJobAndProfile() (*models.CandidateProfile, *models.JobPosting) {
	profile := &models.CandidateProfile{FirstName: "Dana", LastName: "Kovacs", BaseResume: baseResume()}
	job := &models.JobPosting{ID: 99, Title: "Go Developer", Company: "Beta Ltd"}
	return profile, job
}

func TestGenerateUsesTailoredResume(t *testing.T) {
	tailored := baseResume()
	tailored.Summary = "Go engineer focused on payments infrastructure."
	gen, uploader := testGenerator(&stubTailor{tailored: &tailored})
	profile, job := testJobAndProfile()

	variant, err := gen.Generate(context.Background(), profile, job, "We build payments in Go.")
	require.NoError(t, err)
	assert.Equal(t, tailored.Summary, variant.Resume.Summary)
	assert.Contains(t, variant.URL, "resumes/Dana_Kovacs_CV_99.pdf")
	assert.NotEmpty(t, uploader.lastPath)

	var decoded models.Resume
	require.NoError(t, json.Unmarshal(variant.JSON, &decoded))
	assert.Equal(t, "Acme Corp", decoded.Experience[0].Company)

	os.Remove(variant.LocalPath)
}

func TestGenerateRejectsInventedEmployer(t *testing.T) {
	tailored := baseResume()
	tailored.Experience[0].Company = "Google"
	gen, _ := testGenerator(&stubTailor{tailored: &tailored})
	profile, job := testJobAndProfile()

	variant, err := gen.Generate(context.Background(), profile, job, "desc")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", variant.Resume.Experience[0].Company, "invented employer must be discarded")
	assert.Equal(t, baseResume().Summary, variant.Resume.Summary)

	os.Remove(variant.LocalPath)
}

func TestGenerateRejectsAlteredDates(t *testing.T) {
	tailored := baseResume()
	tailored.Experience[1].StartDate = "2015-01"
	gen, _ := testGenerator(&stubTailor{tailored: &tailored})
	profile, job := testJobAndProfile()

	variant, err := gen.Generate(context.Background(), profile, job, "desc")
	require.NoError(t, err)
	assert.Equal(t, "2019-06", variant.Resume.Experience[1].StartDate)

	os.Remove(variant.LocalPath)
}

func TestGenerateFallsBackWhenTailoringErrors(t *testing.T) {
	gen, _ := testGenerator(&stubTailor{err: errors.New("model unavailable")})
	profile, job := testJobAndProfile()

	variant, err := gen.Generate(context.Background(), profile, job, "desc")
	require.NoError(t, err)
	assert.Equal(t, baseResume().Summary, variant.Resume.Summary)

	os.Remove(variant.LocalPath)
}

func TestGenerateSurfacesRenderFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	gen := NewGenerator(&stubTailor{tailored: func() *models.Resume { r := baseResume(); return &r }()},
		&stubRenderer{err: errors.New("chromium crashed")}, &stubUploader{}, log)
	profile, job := testJobAndProfile()

	_, err := gen.Generate(context.Background(), profile, job, "desc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render")
}

func TestCheckFactualInvariance(t *testing.T) {
	base := baseResume()

	ok := baseResume()
	ok.Summary = "rewritten"
	ok.Skills = []string{"Postgres", "Go"}
	assert.NoError(t, CheckFactualInvariance(&base, &ok))

	dropped := baseResume()
	dropped.Experience = dropped.Experience[:1]
	assert.Error(t, CheckFactualInvariance(&base, &dropped))

	badSchool := baseResume()
	badSchool.Education[0].Institution = "MIT"
	assert.Error(t, CheckFactualInvariance(&base, &badSchool))

	badCert := baseResume()
	badCert.Certifications = []string{"CKA"}
	assert.Error(t, CheckFactualInvariance(&base, &badCert))
}

func TestValidateJSON(t *testing.T) {
	valid := baseResume()
	doc, _ := json.Marshal(valid)
	assert.NoError(t, ValidateJSON(doc))

	assert.Error(t, ValidateJSON([]byte(`{"first_name": "Dana"}`)), "missing required keys")
	assert.Error(t, ValidateJSON([]byte(`{"first_name": "", "last_name": "K", "email": "a@b.c", "summary": "s", "skills": [], "experience": []}`)))
}
