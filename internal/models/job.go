package models

import "time"

// JobPosting is a scraped/ingested job record, read-only to the engine except
// for recovering a missing description.
type JobPosting struct {
	ID          int64
	JobURL      string
	ApplyURL    string
	Title       string
	Company     string
	City        string
	Country     string
	IsRemote    bool
	SalaryMin   int
	SalaryMax   int
	Description string // raw HTML as stored by the feed ingester
	SourceATS   string // platform identifier, e.g. "workable"
	SourceJobID string
	PostedAt    time.Time
}

// ResolveURL picks the best URL to start an application run from.
func (j *JobPosting) ResolveURL() string {
	if j.ApplyURL != "" {
		return j.ApplyURL
	}
	return j.JobURL
}
