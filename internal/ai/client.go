package ai

import (
	"context"
	"fmt"

	"go-applyflow-automation/internal/models"
)

// ExperienceHighlight is the trimmed slice of work history included in answer
// prompts.
type ExperienceHighlight struct {
	Role        string `json:"role"`
	Company     string `json:"company"`
	Description string `json:"description,omitempty"`
}

// AnswerRequest carries everything the generative service may see when
// answering one application question. Sensitive profile categories must be
// stripped by the caller before they land in ProfileContext.
type AnswerRequest struct {
	Question       string
	JobTitle       string
	CompanyName    string
	JobDescription string

	Summary      string
	Skills       []string
	TargetTitles []string
	Highlights   []ExperienceHighlight

	ProfileContext map[string]string

	Short       bool
	MaxChars    int
	AllowSalary bool
}

// PickRequest asks the service to choose from a closed option set.
type PickRequest struct {
	Question       string
	Options        []string
	Summary        string
	Skills         []string
	ProfileContext map[string]string
}

// Client is the interface for generative text providers.
type Client interface {
	// TailorResume takes a JSON string of a base resume and a plain-text job
	// description, and returns a tailored Resume object.
	TailorResume(ctx context.Context, baseResumeJSON string, jobDescription string) (*models.Resume, error)

	// AnswerQuestion produces a free-text answer to one form question,
	// bounded by the request's length and format constraints.
	AnswerQuestion(ctx context.Context, req AnswerRequest) (string, error)

	// PickOption chooses exactly one entry from a dropdown's options.
	PickOption(ctx context.Context, req PickRequest) (string, error)

	// PickCheckboxLabels chooses zero or more entries from a checkbox group.
	PickCheckboxLabels(ctx context.Context, req PickRequest) ([]string, error)
}

// buildTailorSystemPrompt creates the system instruction for resume tailoring
func buildTailorSystemPrompt() string {
	return `You are an expert ATS-friendly resume writer.
I will provide a base resume in JSON format and a target job description.

Task:
1. Keep the JSON structure EXACTLY the same. Key names must not change. Keep company names, dates, education, and certifications exactly as they are.
2. Rewrite the 'summary' and each experience 'description' to emphasise the skills and keywords the job description asks for. Use strong action verbs.
3. Reorder or trim 'skills' so the most relevant ones come first. Never add a skill the candidate does not have.
4. Do not invent employers, dates, degrees, or credentials. Factual fields must survive verbatim.
5. Return ONLY a valid, raw JSON object for the entire tailored resume. Do NOT wrap it in markdown blocks. Output starts with { and ends with }.`
}

// buildTailorUserPrompt combines the base resume and job description
func buildTailorUserPrompt(baseResumeJSON, jobDescription string) string {
	return fmt.Sprintf("Base Resume (JSON):\n%s\n\nJob Description:\n%s\n\nPlease output the tailored resume in EXACTLY the same JSON structure.", baseResumeJSON, jobDescription)
}

// buildAnswerSystemPrompt is the instruction set for single-question answers.
// Length and style constraints are repeated here and enforced again locally
// after the call.
func buildAnswerSystemPrompt(maxChars int) string {
	return fmt.Sprintf("You help candidates answer job application questions. "+
		"Use a professional and confident tone. "+
		"For long, open questions, write strong mini cover letter style answers of around three to five sentences. "+
		"For short questions, respond with a very concise factual answer. "+
		"If answer_style is 'short', respond with one to three words only, no greetings, no sign offs, no candidate name. "+
		"Use the job title, company name and job description to tailor the answer when longer context is needed. "+
		"Only mention salary or compensation if the question explicitly asks about it. "+
		"Never include greetings, sign offs, or the candidate name. "+
		"Do not invent employers, dates, qualifications, immigration status, or legal restrictions. "+
		"Your answer MUST NOT exceed %d characters. If necessary, shorten or summarise.", maxChars)
}

const pickOptionSystemPrompt = "Return ONLY one exact item from OPTIONS."

func buildPickOptionPrompt(req PickRequest) string {
	return fmt.Sprintf(`Select the best answer for a job application dropdown.

QUESTION:
%s

OPTIONS (choose EXACTLY one):
%s

Candidate context:
%s

RULES:
- Return EXACTLY one option from OPTIONS.
- Do NOT invent or modify text.
- Prefer the answer most likely to help the candidate receive an interview.`,
		req.Question, mustJSON(req.Options), mustJSON(req.ProfileContext))
}

const pickCheckboxSystemPrompt = "Return only a JSON array."

func buildPickCheckboxPrompt(req PickRequest) string {
	return fmt.Sprintf(`You are filling a job application checkbox group.

The question is:
%q

Options (multi-select):
%s

Candidate skills:
%s

Candidate context:
%s

RULES:
- Choose ONLY relevant options.
- Return ONLY a JSON list of selected option labels.
- If none apply, return an empty list [].`,
		req.Question, mustJSON(req.Options), mustJSON(req.Skills), mustJSON(req.ProfileContext))
}
