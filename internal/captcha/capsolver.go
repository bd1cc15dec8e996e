// Package captcha solves Cloudflare Turnstile challenges through the
// CapSolver HTTP API. Solving is best effort: callers fall back to
// manual review when no API key is configured or the solve times out.
package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.capsolver.com"
	pollInterval   = 1500 * time.Millisecond
	solveTimeout   = 120 * time.Second
)

// Solver resolves a Turnstile challenge into a token for injection.
type Solver interface {
	SolveTurnstile(ctx context.Context, pageURL, siteKey string) (string, error)
	Enabled() bool
}

type CapSolver struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewCapSolver(apiKey string) *CapSolver {
	return &CapSolver{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *CapSolver) Enabled() bool {
	return c.apiKey != ""
}

type createTaskRequest struct {
	ClientKey string         `json:"clientKey"`
	Task      map[string]any `json:"task"`
}

type createTaskResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
	TaskID           string `json:"taskId"`
}

type taskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    string `json:"taskId"`
}

type taskResultResponse struct {
	ErrorID          int    `json:"errorId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
	Status           string `json:"status"`
	Solution         struct {
		Token string `json:"token"`
	} `json:"solution"`
}

// SolveTurnstile submits an AntiTurnstileTaskProxyLess task and polls until
// CapSolver reports it ready. Returns the solved token.
func (c *CapSolver) SolveTurnstile(ctx context.Context, pageURL, siteKey string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("capsolver api key not configured")
	}

	taskID, err := c.createTask(ctx, map[string]any{
		"type":       "AntiTurnstileTaskProxyLess",
		"websiteURL": pageURL,
		"websiteKey": siteKey,
	})
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(solveTimeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("capsolver task %s timed out after %s", taskID, solveTimeout)
		}

		result, err := c.getTaskResult(ctx, taskID)
		if err != nil {
			return "", err
		}
		switch result.Status {
		case "ready":
			return result.Solution.Token, nil
		case "processing", "idle":
			continue
		default:
			return "", fmt.Errorf("capsolver task %s failed: %s", taskID, result.ErrorDescription)
		}
	}
}

func (c *CapSolver) createTask(ctx context.Context, task map[string]any) (string, error) {
	var resp createTaskResponse
	err := c.post(ctx, "/createTask", createTaskRequest{ClientKey: c.apiKey, Task: task}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ErrorID != 0 {
		return "", fmt.Errorf("capsolver createTask: %s (%s)", resp.ErrorDescription, resp.ErrorCode)
	}
	return resp.TaskID, nil
}

func (c *CapSolver) getTaskResult(ctx context.Context, taskID string) (*taskResultResponse, error) {
	var resp taskResultResponse
	err := c.post(ctx, "/getTaskResult", taskResultRequest{ClientKey: c.apiKey, TaskID: taskID}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ErrorID != 0 && resp.Status != "failed" {
		return nil, fmt.Errorf("capsolver getTaskResult: %s (%s)", resp.ErrorDescription, resp.ErrorCode)
	}
	return &resp, nil
}

func (c *CapSolver) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal capsolver request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build capsolver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("capsolver request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("capsolver returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode capsolver response: %w", err)
	}
	return nil
}
