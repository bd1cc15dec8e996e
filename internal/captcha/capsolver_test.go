package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSolver(t *testing.T, handler http.HandlerFunc) *CapSolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	solver := NewCapSolver("test-key")
	solver.baseURL = server.URL
	return solver
}

func TestSolveTurnstilePollsUntilReady(t *testing.T) {
	var polls int32
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/createTask":
			var req createTaskRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "test-key", req.ClientKey)
			assert.Equal(t, "AntiTurnstileTaskProxyLess", req.Task["type"])
			assert.Equal(t, "https://example.com/apply", req.Task["websiteURL"])
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "taskId": "task-1"})
		case "/getTaskResult":
			if atomic.AddInt32(&polls, 1) < 3 {
				json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"errorId": 0, "status": "ready",
				"solution": map[string]string{"token": "tok-abc"},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	token, err := solver.SolveTurnstile(context.Background(), "https://example.com/apply", "0xSITEKEY")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(3))
}

func TestSolveTurnstileFailedTask(t *testing.T) {
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/createTask":
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "taskId": "task-2"})
		case "/getTaskResult":
			json.NewEncoder(w).Encode(map[string]any{
				"errorId": 1, "status": "failed",
				"errorCode": "ERROR_CAPTCHA_UNSOLVABLE", "errorDescription": "unsolvable",
			})
		}
	})

	_, err := solver.SolveTurnstile(context.Background(), "https://example.com", "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsolvable")
}

func TestSolveTurnstileRespectsContext(t *testing.T) {
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/createTask" {
			json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "taskId": "task-3"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"errorId": 0, "status": "processing"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := solver.SolveTurnstile(ctx, "https://example.com", "key")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSolveTurnstileWithoutKey(t *testing.T) {
	solver := NewCapSolver("")
	assert.False(t, solver.Enabled())
	_, err := solver.SolveTurnstile(context.Background(), "https://example.com", "key")
	assert.Error(t, err)
}
