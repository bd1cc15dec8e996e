package models

// ApplyResult is what a bot run reports back to the dispatcher. Status is one
// of success, failed, retry, manual_required; the dispatcher maps it onto the
// task.
type ApplyResult struct {
	Status        Status
	Message       string
	ScreenshotURL string
}

// RunState tracks what actually happened inside a single browser session. It
// is created at the start of a run and discarded when the session closes.
type RunState struct {
	SubmitClicked bool
	CVUploaded    bool

	// A step may decide the run early (e.g. a missing form); the verifier
	// honors these over its own classification.
	FinishStatus  Status
	FinishMessage string
}

// Finish records an early terminal decision for the run.
func (s *RunState) Finish(status Status, message string) {
	s.FinishStatus = status
	s.FinishMessage = message
}

// Finished reports whether a step already decided the run.
func (s *RunState) Finished() bool {
	return s.FinishStatus != ""
}
