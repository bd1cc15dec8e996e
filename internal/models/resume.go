package models

type Experience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	GraduationYear string `json:"graduation_year"`
}

type AdditionalDetails struct {
	GitHub    string `json:"github,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// Resume is the structured CV exchanged with the generative service. Key
// names must stay stable: the tailoring prompt instructs the model to return
// the exact same shape.
type Resume struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`

	Summary   string   `json:"summary"`
	Skills    []string `json:"skills"`
	JobTitles []string `json:"job_titles"`

	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Certifications []string     `json:"certifications"`
	Languages      []string     `json:"languages"`

	AdditionalDetails AdditionalDetails `json:"additional_details"`
}

// CurrentEmployer returns the most recent employer, or "".
func (r *Resume) CurrentEmployer() string {
	if len(r.Experience) == 0 {
		return ""
	}
	return r.Experience[0].Company
}
