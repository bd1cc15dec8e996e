// Package answers resolves application-form questions against the candidate
// profile. Resolution is layered: identity fields and high-confidence profile
// lookups answer deterministically, safety rules handle legal boilerplate,
// and only then does the generative client get a (sanitized) shot. Questions
// about protected characteristics are never free-text generated.
package answers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go-applyflow-automation/internal/ai"
	"go-applyflow-automation/internal/models"
)

// ErrNeedsManual signals that a required question has no safe automatic
// answer and the task must go to human review.
var ErrNeedsManual = errors.New("question requires manual review")

// Question is one form field as observed by a bot.
type Question struct {
	Label    string
	Required bool
	Short    bool
	MaxChars int
}

// JobContext carries what the resolver may tell the generative client about
// the posting.
type JobContext struct {
	Title       string
	Company     string
	Description string
}

type Resolver struct {
	ai      ai.Client
	profile *models.CandidateProfile
	job     JobContext
}

func NewResolver(client ai.Client, profile *models.CandidateProfile, job JobContext) *Resolver {
	return &Resolver{ai: client, profile: profile, job: job}
}

var sensitiveKeywords = map[string][]string{
	"race":              {"race", "ethnic"},
	"gender":            {"gender", "sex "},
	"disability_status": {"disability", "disabled"},
	"veteran_status":    {"veteran", "military service", "armed forces"},
}

// sensitiveCategory returns the protected-characteristic category a label
// asks about, or "" when it is an ordinary question.
func sensitiveCategory(label string) string {
	l := strings.ToLower(label)
	for category, words := range sensitiveKeywords {
		for _, w := range words {
			if strings.Contains(l, w) {
				return category
			}
		}
	}
	return ""
}

func (r *Resolver) storedSensitiveAnswer(category string) string {
	a := r.profile.Answers
	switch category {
	case "race":
		return a.Race
	case "gender":
		return a.Gender
	case "disability_status":
		return a.DisabilityStatus
	case "veteran_status":
		return a.VeteranStatus
	}
	return ""
}

// AnswerText resolves a free-text question. An empty answer with a nil error
// means the optional field should be left blank.
func (r *Resolver) AnswerText(ctx context.Context, q Question) (string, error) {
	label := strings.TrimSpace(q.Label)
	if label == "" {
		return "", nil
	}

	if category := sensitiveCategory(label); category != "" {
		if stored := r.storedSensitiveAnswer(category); stored != "" {
			return clamp(stored, q.MaxChars), nil
		}
		// Optional demographic questions stay blank; only a hard requirement
		// warrants the explicit decline.
		if !q.Required {
			return "", nil
		}
		return "Prefer not to say", nil
	}

	if answer := r.identityAnswer(label); answer != "" {
		return clamp(answer, q.MaxChars), nil
	}
	if answer := r.profileAnswer(label); answer != "" {
		return clamp(answer, q.MaxChars), nil
	}
	if answer, ok := r.safetyAnswer(label); ok {
		return answer, nil
	}

	answer, err := r.generate(ctx, q)
	if err != nil {
		if q.Required {
			return "N/A", nil
		}
		return "", nil
	}
	if answer == "" && q.Required {
		return "N/A", nil
	}
	return answer, nil
}

// identityAnswer covers contact and link fields that map one-to-one onto
// the profile. Order matters: "first name" must win before "name".
func (r *Resolver) identityAnswer(label string) string {
	l := strings.ToLower(label)
	p := r.profile
	links := p.BaseResume.AdditionalDetails

	switch {
	case strings.Contains(l, "first name") || strings.Contains(l, "given name"):
		return p.FirstName
	case strings.Contains(l, "last name") || strings.Contains(l, "surname") || strings.Contains(l, "family name"):
		return p.LastName
	case strings.Contains(l, "full name") || l == "name" || strings.Contains(l, "your name"):
		return p.FullName()
	case strings.Contains(l, "email"):
		return p.Email
	case strings.Contains(l, "phone") || strings.Contains(l, "mobile"):
		return p.Phone
	case strings.Contains(l, "linkedin"):
		return links.LinkedIn
	case strings.Contains(l, "github"):
		return links.GitHub
	case strings.Contains(l, "portfolio") || strings.Contains(l, "website") || strings.Contains(l, "personal site"):
		return links.Portfolio
	case strings.Contains(l, "address"):
		return p.Address()
	case strings.Contains(l, "current location") || strings.Contains(l, "city"):
		return p.City
	case strings.Contains(l, "cover letter"):
		return p.CoverLetter
	}
	return ""
}

// profileAnswer covers the recurring screener questions the stored answers
// settle without any generation.
func (r *Resolver) profileAnswer(label string) string {
	l := strings.ToLower(label)
	a := r.profile.Answers

	switch {
	case strings.Contains(l, "current employer") || strings.Contains(l, "current company") || strings.Contains(l, "most recent employer"):
		return r.profile.BaseResume.CurrentEmployer()
	case strings.Contains(l, "notice period") || strings.Contains(l, "when can you start") || strings.Contains(l, "earliest start") || strings.Contains(l, "start date"):
		return a.NoticePeriod
	case strings.Contains(l, "authorized to work") || strings.Contains(l, "authorised to work") || strings.Contains(l, "work authorization") || strings.Contains(l, "legally allowed") || strings.Contains(l, "right to work"):
		if a.WorkAuthorization != "" {
			return a.WorkAuthorization
		}
		return yesNo(a.LegallyAllowed)
	case strings.Contains(l, "sponsorship") || strings.Contains(l, "require a visa"):
		return yesNo(a.SponsorshipRequired)
	case strings.Contains(l, "relocat"):
		return yesNo(a.WillingToRelocate)
	case strings.Contains(l, "years of experience") || strings.Contains(l, "how many years"):
		return a.YearsExperience
	case strings.Contains(l, "salary") || strings.Contains(l, "compensation") || strings.Contains(l, "rate expectation"):
		return salaryLowerBound(a.DesiredSalary)
	case strings.Contains(l, "work preference") || strings.Contains(l, "remote or") || strings.Contains(l, "hybrid or"):
		if a.LocationPreference != "" {
			return a.LocationPreference
		}
		if r.profile.RemotePreference {
			return "Remote"
		}
	}
	return ""
}

// safetyAnswer handles legal boilerplate that must never be improvised.
func (r *Resolver) safetyAnswer(label string) (string, bool) {
	l := strings.ToLower(label)

	if strings.Contains(l, "non-compete") || strings.Contains(l, "noncompete") || strings.Contains(l, "restrictive covenant") {
		return "No", true
	}
	if strings.Contains(l, "previously interviewed") || strings.Contains(l, "interviewed with us") ||
		strings.Contains(l, "previously applied") || strings.Contains(l, "applied before") ||
		strings.Contains(l, "previously worked") || strings.Contains(l, "worked here before") {
		return "No", true
	}
	if isAgreementCopy(l) {
		return "N/A", true
	}
	return "", false
}

func isAgreementCopy(lower string) bool {
	for _, phrase := range []string{
		"i agree", "i acknowledge", "i certify", "i consent", "i confirm",
		"by checking", "by submitting", "terms and conditions", "privacy policy", "privacy notice",
	} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func (r *Resolver) generate(ctx context.Context, q Question) (string, error) {
	req := ai.AnswerRequest{
		Question:       q.Label,
		JobTitle:       r.job.Title,
		CompanyName:    r.job.Company,
		JobDescription: r.job.Description,
		Summary:        r.profile.BaseResume.Summary,
		Skills:         r.profile.BaseResume.Skills,
		TargetTitles:   r.profile.BaseResume.JobTitles,
		Highlights:     experienceHighlights(r.profile.BaseResume.Experience),
		ProfileContext: r.profileContext(),
		Short:          q.Short,
		MaxChars:       q.MaxChars,
		AllowSalary:    strings.Contains(strings.ToLower(q.Label), "salary"),
	}
	answer, err := r.ai.AnswerQuestion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generative answer failed: %w", err)
	}
	return answer, nil
}

// profileContext is the slice of the profile the generative client may see.
// Protected characteristics are deliberately absent.
func (r *Resolver) profileContext() map[string]string {
	p := r.profile
	a := p.Answers
	remote := ""
	if p.RemotePreference {
		remote = "prefers remote work"
	}
	ctx := map[string]string{
		"name":                p.FullName(),
		"city":                p.City,
		"country":             p.Country,
		"remote_preference":   remote,
		"notice_period":       a.NoticePeriod,
		"work_authorization":  a.WorkAuthorization,
		"years_experience":    a.YearsExperience,
		"location_preference": a.LocationPreference,
	}
	for k, v := range ctx {
		if v == "" {
			delete(ctx, k)
		}
	}
	return ctx
}

func experienceHighlights(exp []models.Experience) []ai.ExperienceHighlight {
	highlights := make([]ai.ExperienceHighlight, 0, len(exp))
	for _, e := range exp {
		highlights = append(highlights, ai.ExperienceHighlight{
			Company: e.Company,
			Role:    e.Role,
		})
	}
	return highlights
}

// PickOption resolves a single-choice question against a closed option set.
// An empty choice with a nil error means an optional question is skipped.
func (r *Resolver) PickOption(ctx context.Context, q Question, options []string) (string, error) {
	if len(options) == 0 {
		return "", nil
	}

	if category := sensitiveCategory(q.Label); category != "" {
		return r.pickSensitive(category, q, options)
	}

	if choice := r.pickDeterministic(q.Label, options); choice != "" {
		return choice, nil
	}

	choice, err := r.ai.PickOption(ctx, ai.PickRequest{
		Question:       q.Label,
		Options:        options,
		Summary:        r.profile.BaseResume.Summary,
		Skills:         r.profile.BaseResume.Skills,
		ProfileContext: r.profileContext(),
	})
	if err != nil {
		if q.Required {
			return "", fmt.Errorf("%w: %s", ErrNeedsManual, q.Label)
		}
		return "", nil
	}
	return choice, nil
}

func (r *Resolver) pickSensitive(category string, q Question, options []string) (string, error) {
	if stored := r.storedSensitiveAnswer(category); stored != "" {
		if match := matchOption(options, strings.ToLower(stored)); match != "" {
			return match, nil
		}
	}
	if match := declineOption(options); match != "" {
		return match, nil
	}
	if q.Required {
		return "", fmt.Errorf("%w: %s", ErrNeedsManual, q.Label)
	}
	return "", nil
}

// pickDeterministic settles the recurring screener selects straight from the
// profile, mirroring the text-path lookups.
func (r *Resolver) pickDeterministic(label string, options []string) string {
	l := strings.ToLower(label)
	a := r.profile.Answers

	switch {
	case strings.Contains(l, "non-compete") || strings.Contains(l, "noncompete") || strings.Contains(l, "restrictive covenant"),
		strings.Contains(l, "previously interviewed") || strings.Contains(l, "previously applied") || strings.Contains(l, "applied before"):
		return yesNoOption(options, false)
	case isAgreementCopy(l):
		return agreeOption(options)
	case strings.Contains(l, "authorized to work") || strings.Contains(l, "authorised to work") || strings.Contains(l, "legally allowed") || strings.Contains(l, "right to work"):
		if a.LegallyAllowed != nil {
			return yesNoOption(options, *a.LegallyAllowed)
		}
	case strings.Contains(l, "sponsorship") || strings.Contains(l, "require a visa"):
		if a.SponsorshipRequired != nil {
			return yesNoOption(options, *a.SponsorshipRequired)
		}
	case strings.Contains(l, "relocat"):
		if a.WillingToRelocate != nil {
			return yesNoOption(options, *a.WillingToRelocate)
		}
	case strings.Contains(l, "notice period") || strings.Contains(l, "when can you start"):
		if a.NoticePeriod != "" {
			return matchOption(options, strings.ToLower(a.NoticePeriod))
		}
	case strings.Contains(l, "years of experience") || strings.Contains(l, "how many years"):
		return numericOption(options, a.YearsExperience)
	case strings.Contains(l, "salary") || strings.Contains(l, "compensation"):
		return numericOption(options, salaryLowerBound(a.DesiredSalary))
	}
	return ""
}

// PickMulti resolves a checkbox group. When the group is required and no
// label was chosen, exactly one fallback is picked so the form validates.
func (r *Resolver) PickMulti(ctx context.Context, q Question, options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}

	if category := sensitiveCategory(q.Label); category != "" {
		choice, err := r.pickSensitive(category, q, options)
		if err != nil || choice == "" {
			return nil, err
		}
		return []string{choice}, nil
	}

	if isAgreementCopy(strings.ToLower(q.Label)) {
		if match := agreeOption(options); match != "" {
			return []string{match}, nil
		}
	}

	labels, err := r.ai.PickCheckboxLabels(ctx, ai.PickRequest{
		Question:       q.Label,
		Options:        options,
		Summary:        r.profile.BaseResume.Summary,
		Skills:         r.profile.BaseResume.Skills,
		ProfileContext: r.profileContext(),
	})
	if err != nil {
		labels = nil
	}
	if len(labels) == 0 && q.Required {
		if match := declineOption(options); match != "" {
			return []string{match}, nil
		}
		return []string{options[0]}, nil
	}
	return labels, nil
}

func yesNo(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "Yes"
	}
	return "No"
}

// matchOption returns the first option containing the needle, ignoring case.
func matchOption(options []string, needle string) string {
	if needle == "" {
		return ""
	}
	for _, opt := range options {
		if strings.Contains(strings.ToLower(opt), needle) {
			return opt
		}
	}
	return ""
}

func declineOption(options []string) string {
	for _, needle := range []string{"prefer not", "decline", "don't wish", "do not wish", "rather not"} {
		if match := matchOption(options, needle); match != "" {
			return match
		}
	}
	return ""
}

func yesNoOption(options []string, yes bool) string {
	if yes {
		return matchOption(options, "yes")
	}
	return matchOption(options, "no")
}

func agreeOption(options []string) string {
	for _, needle := range []string{"i agree", "accept", "acknowledge", "yes"} {
		if match := matchOption(options, needle); match != "" {
			return match
		}
	}
	return ""
}

var numberRe = regexp.MustCompile(`\d+`)

// numericOption picks the option whose numeric range admits the value,
// favouring the tightest match.
func numericOption(options []string, value string) string {
	nums := numberRe.FindString(value)
	if nums == "" {
		return ""
	}
	n, err := strconv.Atoi(nums)
	if err != nil {
		return ""
	}

	best := ""
	bestSpan := -1
	for _, opt := range options {
		bounds := numberRe.FindAllString(opt, -1)
		if len(bounds) == 0 {
			continue
		}
		lo, _ := strconv.Atoi(bounds[0])
		hi := lo
		if len(bounds) > 1 {
			hi, _ = strconv.Atoi(bounds[len(bounds)-1])
		} else if strings.Contains(opt, "+") || strings.Contains(strings.ToLower(opt), "more") {
			hi = 1 << 30
		}
		if n < lo || n > hi {
			continue
		}
		span := hi - lo
		if best == "" || span < bestSpan {
			best = opt
			bestSpan = span
		}
	}
	return best
}

// salaryLowerBound reduces "50,000 - 60,000" style expectations to their
// lower bound so range screeners are never overshot.
func salaryLowerBound(salary string) string {
	cleaned := strings.ReplaceAll(salary, ",", "")
	if match := numberRe.FindString(cleaned); match != "" {
		return match
	}
	return strings.TrimSpace(salary)
}

func clamp(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
