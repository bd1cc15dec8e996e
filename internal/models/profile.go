package models

// ProfileAnswers is the candidate's bag of previously-given answers to common
// application questions, stored as JSON on the profile row.
type ProfileAnswers struct {
	NoticePeriod       string `json:"notice_period,omitempty"`
	WorkAuthorization  string `json:"work_authorization,omitempty"`
	YearsExperience    string `json:"years_experience,omitempty"`
	LocationPreference string `json:"location_preference,omitempty"`
	DesiredSalary      string `json:"desired_salary,omitempty"`

	LegallyAllowed      *bool `json:"legally_allowed,omitempty"`
	SponsorshipRequired *bool `json:"sponsorship_required,omitempty"`
	WillingToRelocate   *bool `json:"willing_to_relocate,omitempty"`

	// Voluntary self-identification. Never sent to the generative service
	// except when the question itself is the matching category.
	Race             string `json:"race,omitempty"`
	Gender           string `json:"gender,omitempty"`
	DisabilityStatus string `json:"disability_status,omitempty"`
	VeteranStatus    string `json:"veteran_status,omitempty"`
}

// CandidateProfile is the slice of the external profile store this engine
// reads. It is never written back.
type CandidateProfile struct {
	UserID      int64
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	City        string
	State       string
	Country     string
	CountryCode string

	RemotePreference bool
	CoverLetter      string

	BaseResume Resume // parsed structured CV
	Answers    ProfileAnswers
}

// FullName joins first and last name, tolerating either being empty.
func (p *CandidateProfile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Address renders "City, Country" with whichever parts exist.
func (p *CandidateProfile) Address() string {
	switch {
	case p.City != "" && p.Country != "":
		return p.City + ", " + p.Country
	case p.City != "":
		return p.City
	default:
		return p.Country
	}
}
