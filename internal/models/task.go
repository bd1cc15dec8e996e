package models

import (
	"time"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusRetry          Status = "retry"
	StatusManualRequired Status = "manual_required"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
	StatusManualSuccess  Status = "manual_success"
)

// Terminal reports whether a status may never transition again.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusCancelled, StatusManualSuccess, StatusRejected:
		return true
	}
	return false
}

// allowedTransitions is the single source of truth for the task state machine.
// The worker is the only mutator of processing and its outcomes; the rest are
// user-driven transitions exposed through the status API.
var allowedTransitions = map[Status][]Status{
	StatusPending:        {StatusProcessing, StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:       {StatusPending, StatusCancelled},
	StatusProcessing:     {StatusSuccess, StatusFailed, StatusRetry, StatusManualRequired, StatusCancelled},
	StatusRetry:          {StatusPending, StatusFailed, StatusCancelled},
	StatusFailed:         {StatusPending, StatusCancelled},
	StatusManualRequired: {StatusPending, StatusManualSuccess, StatusApproved, StatusRejected, StatusCancelled},
}

// CanTransition reports whether moving a task from one status to another is
// legal. Terminal states never transition; only pending tasks may be claimed
// into processing.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusProcessing && from != StatusPending {
		return false
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplicationTask is one candidate-to-job application attempt. Rows live in
// the applications table; the dispatcher owns every processing/outcome write.
type ApplicationTask struct {
	ID         int64
	UserID     int64
	JobID      int64
	JobURL     string
	JobURLHash string

	Status Status

	ResumeVariant  []byte // tailored resume JSON, as produced by the generator
	ResumeURL      string // rendered document in object storage
	ScreenshotURL  string
	ErrorMessage   string
	ManualStarted  bool
	CreditConsumed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
