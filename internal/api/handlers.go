package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"go-applyflow-automation/internal/models"
)

type taskResponse struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	JobID         int64  `json:"job_id"`
	JobURL        string `json:"job_url,omitempty"`
	Status        string `json:"status"`
	ResumeURL     string `json:"cv_url,omitempty"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	ManualStarted bool   `json:"manual_started"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toTaskResponse(t *models.ApplicationTask) taskResponse {
	return taskResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		JobID:         t.JobID,
		JobURL:        t.JobURL,
		Status:        string(t.Status),
		ResumeURL:     t.ResumeURL,
		ScreenshotURL: t.ScreenshotURL,
		ErrorMessage:  t.ErrorMessage,
		ManualStarted: t.ManualStarted,
		CreatedAt:     t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     t.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// transitionTo builds a handler that moves the task from its current status
// into target, rejecting moves the state machine forbids.
func (s *Server) transitionTo(target models.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, ok := s.loadTask(w, r)
		if !ok {
			return
		}

		if !models.CanTransition(task.Status, target) {
			writeError(w, http.StatusConflict, "invalid_transition",
				"cannot move task from "+string(task.Status)+" to "+string(target))
			return
		}

		if err := s.store.Transition(r.Context(), task.ID, task.Status, target); err != nil {
			// Lost the race with the worker or another caller.
			writeError(w, http.StatusConflict, "invalid_transition", err.Error())
			return
		}

		s.logger.Info("task transitioned", "task_id", task.ID, "from", task.Status, "to", target)
		task.Status = target
		writeJSON(w, http.StatusOK, toTaskResponse(task))
	}
}

func (s *Server) handleManualStart(w http.ResponseWriter, r *http.Request) {
	task, ok := s.loadTask(w, r)
	if !ok {
		return
	}

	if err := s.store.SetManualStarted(r.Context(), task.ID); err != nil {
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
		return
	}

	task.ManualStarted = true
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*models.ApplicationTask, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "task id must be an integer")
		return nil, false
	}

	task, err := s.store.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "task not found")
			return nil, false
		}
		s.logger.Error("task lookup failed", "task_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not load task")
		return nil, false
	}
	return task, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}
