package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-applyflow-automation/internal/models"
)

type fakeStore struct {
	tasks map[int64]*models.ApplicationTask
}

func (f *fakeStore) GetTask(ctx context.Context, taskID int64) (*models.ApplicationTask, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *task
	return &copied, nil
}

func (f *fakeStore) Transition(ctx context.Context, taskID int64, from, to models.Status) error {
	task := f.tasks[taskID]
	if task.Status != from {
		return pgx.ErrNoRows
	}
	task.Status = to
	return nil
}

func (f *fakeStore) SetManualStarted(ctx context.Context, taskID int64) error {
	task := f.tasks[taskID]
	if task.Status != models.StatusManualRequired {
		return pgx.ErrNoRows
	}
	task.ManualStarted = true
	return nil
}

func newTestServer(tasks ...*models.ApplicationTask) (*Server, *fakeStore) {
	store := &fakeStore{tasks: map[int64]*models.ApplicationTask{}}
	for _, t := range tasks {
		store.tasks[t.ID] = t
	}
	return NewServer(":0", store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func doRequest(s *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func pendingTask() *models.ApplicationTask {
	return &models.ApplicationTask{
		ID:        42,
		UserID:    1,
		JobID:     9,
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestGetTask(t *testing.T) {
	s, _ := newTestServer(pendingTask())

	rec := doRequest(s, http.MethodGet, "/api/tasks/42")
	require.Equal(t, http.StatusOK, rec.Code)

	var got taskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, "pending", got.Status)
}

func TestGetTaskNotFound(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodGet, "/api/tasks/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskBadID(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodGet, "/api/tasks/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApprovePending(t *testing.T) {
	s, store := newTestServer(pendingTask())

	rec := doRequest(s, http.MethodPost, "/api/tasks/42/approve")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusApproved, store.tasks[42].Status)
}

func TestRetryMovesFailedBackToPending(t *testing.T) {
	task := pendingTask()
	task.Status = models.StatusFailed
	s, store := newTestServer(task)

	rec := doRequest(s, http.MethodPost, "/api/tasks/42/retry")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPending, store.tasks[42].Status)
}

func TestCannotRetryTerminalTask(t *testing.T) {
	task := pendingTask()
	task.Status = models.StatusSuccess
	s, store := newTestServer(task)

	rec := doRequest(s, http.MethodPost, "/api/tasks/42/retry")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.StatusSuccess, store.tasks[42].Status)
}

func TestCancelProcessingTask(t *testing.T) {
	task := pendingTask()
	task.Status = models.StatusProcessing
	s, store := newTestServer(task)

	rec := doRequest(s, http.MethodPost, "/api/tasks/42/cancel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusCancelled, store.tasks[42].Status)
}

func TestManualFlow(t *testing.T) {
	task := pendingTask()
	task.Status = models.StatusManualRequired
	s, store := newTestServer(task)

	rec := doRequest(s, http.MethodPost, "/api/tasks/42/manual-start")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.tasks[42].ManualStarted)

	rec = doRequest(s, http.MethodPost, "/api/tasks/42/manual-complete")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusManualSuccess, store.tasks[42].Status)
}

func TestManualStartRequiresManualRequired(t *testing.T) {
	s, _ := newTestServer(pendingTask())
	rec := doRequest(s, http.MethodPost, "/api/tasks/42/manual-start")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
