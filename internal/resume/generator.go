// Package resume produces the per-application CV variant: the base resume is
// rewritten for the posting by the generative client, checked for invented
// facts, rendered to PDF, and uploaded.
package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go-applyflow-automation/internal/ai"
	"go-applyflow-automation/internal/models"
	"go-applyflow-automation/internal/storage"
)

// Variant is one generated CV, ready for upload into a form.
type Variant struct {
	Resume    *models.Resume
	JSON      []byte
	LocalPath string
	URL       string
	Filename  string
}

type Generator struct {
	ai       ai.Client
	renderer Renderer
	uploader storage.Uploader
	log      *slog.Logger
}

func NewGenerator(client ai.Client, renderer Renderer, uploader storage.Uploader, log *slog.Logger) *Generator {
	return &Generator{ai: client, renderer: renderer, uploader: uploader, log: log}
}

// Generate tailors the profile's base resume for the posting and returns the
// rendered, uploaded variant. Tailoring degrades to the untouched base resume
// when the model output is invalid or mutates factual fields; rendering and
// upload failures are returned to the caller.
func (g *Generator) Generate(ctx context.Context, profile *models.CandidateProfile, job *models.JobPosting, description string) (*Variant, error) {
	base := profile.BaseResume
	chosen := g.tailor(ctx, &base, job, description)

	doc, err := json.Marshal(chosen)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume: %w", err)
	}

	pdfBytes, err := g.renderer.Render(chosen)
	if err != nil {
		return nil, fmt.Errorf("failed to render resume: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_CV_%d.pdf", safeName(profile.FirstName), safeName(profile.LastName), job.ID)
	localPath, err := WriteTemp(pdfBytes, filename)
	if err != nil {
		return nil, err
	}

	url, err := g.uploader.Upload(ctx, localPath, "resumes", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to upload resume: %w", err)
	}

	return &Variant{
		Resume:    chosen,
		JSON:      doc,
		LocalPath: localPath,
		URL:       url,
		Filename:  filename,
	}, nil
}

// tailor returns the tailored resume, or the base resume when tailoring
// fails any check.
func (g *Generator) tailor(ctx context.Context, base *models.Resume, job *models.JobPosting, description string) *models.Resume {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		g.log.Warn("could not marshal base resume, using it untailored", "error", err)
		return base
	}

	tailored, err := g.ai.TailorResume(ctx, string(baseJSON), description)
	if err != nil {
		g.log.Warn("resume tailoring failed, using base resume", "job_id", job.ID, "error", err)
		return base
	}

	doc, err := json.Marshal(tailored)
	if err != nil {
		g.log.Warn("could not marshal tailored resume, using base resume", "job_id", job.ID, "error", err)
		return base
	}
	if err := ValidateJSON(doc); err != nil {
		g.log.Warn("tailored resume rejected by schema, using base resume", "job_id", job.ID, "error", err)
		return base
	}
	if err := CheckFactualInvariance(base, tailored); err != nil {
		g.log.Warn("tailored resume mutated factual fields, using base resume", "job_id", job.ID, "error", err)
		return base
	}
	return tailored
}

// CheckFactualInvariance verifies that tailoring left employers, employment
// dates, education, and certifications untouched. Summaries, descriptions,
// and skill ordering are free to change.
func CheckFactualInvariance(base, tailored *models.Resume) error {
	if len(tailored.Experience) != len(base.Experience) {
		return fmt.Errorf("experience count changed from %d to %d", len(base.Experience), len(tailored.Experience))
	}
	for i, b := range base.Experience {
		t := tailored.Experience[i]
		if t.Company != b.Company {
			return fmt.Errorf("employer %q changed to %q", b.Company, t.Company)
		}
		if t.StartDate != b.StartDate || t.EndDate != b.EndDate {
			return fmt.Errorf("dates for %q changed from %s-%s to %s-%s",
				b.Company, b.StartDate, b.EndDate, t.StartDate, t.EndDate)
		}
	}

	if len(tailored.Education) != len(base.Education) {
		return fmt.Errorf("education count changed from %d to %d", len(base.Education), len(tailored.Education))
	}
	for i, b := range base.Education {
		t := tailored.Education[i]
		if t.Institution != b.Institution || t.Degree != b.Degree || t.GraduationYear != b.GraduationYear {
			return fmt.Errorf("education entry %q was altered", b.Institution)
		}
	}

	if len(tailored.Certifications) != len(base.Certifications) {
		return fmt.Errorf("certification count changed from %d to %d", len(base.Certifications), len(tailored.Certifications))
	}
	for i, c := range base.Certifications {
		if tailored.Certifications[i] != c {
			return fmt.Errorf("certification %q was altered", c)
		}
	}
	return nil
}

func safeName(s string) string {
	if s == "" {
		return "Candidate"
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "Candidate"
	}
	return string(out)
}
