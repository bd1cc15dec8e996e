package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-applyflow-automation/internal/models"
)

const defaultAnswerChars = 255

type openaiClient struct {
	apiKey      string
	baseURL     string
	tailorModel string
	answerModel string
	httpClient  *http.Client
}

// NewOpenAIClient creates a client for any OpenAI-compatible chat completions
// endpoint.
func NewOpenAIClient(apiKey, baseURL, tailorModel, answerModel string) Client {
	return &openaiClient{
		apiKey:      apiKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		tailorModel: tailorModel,
		answerModel: answerModel,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// complete performs one chat-completions round trip and returns the raw text.
func (c *openaiClient) complete(ctx context.Context, req chatRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat API")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// TailorResume sends the base resume and job description to the model and
// parses the rewritten resume back into the typed struct.
func (c *openaiClient) TailorResume(ctx context.Context, baseResumeJSON string, jobDescription string) (*models.Resume, error) {
	content, err := c.complete(ctx, chatRequest{
		Model: c.tailorModel,
		Messages: []chatMessage{
			{Role: "system", Content: buildTailorSystemPrompt()},
			{Role: "user", Content: buildTailorUserPrompt(baseResumeJSON, jobDescription)},
		},
		Temperature: 0.25, // Low temperature for consistency
	})
	if err != nil {
		return nil, err
	}

	cleanedJSON := cleanMarkdownJSON(content)

	var tailored models.Resume
	if err := json.Unmarshal([]byte(cleanedJSON), &tailored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal AI response to Resume struct (raw length: %d): %w", len(cleanedJSON), err)
	}

	return &tailored, nil
}

// AnswerQuestion generates one bounded answer. The character cap is enforced
// locally regardless of what the model returns.
func (c *openaiClient) AnswerQuestion(ctx context.Context, req AnswerRequest) (string, error) {
	maxChars := req.MaxChars
	if maxChars <= 0 {
		maxChars = defaultAnswerChars
	}

	userMsg := map[string]any{
		"question":              req.Question,
		"job_title":             req.JobTitle,
		"company_name":          req.CompanyName,
		"job_description":       req.JobDescription,
		"cv_summary":            req.Summary,
		"skills":                req.Skills,
		"target_job_titles":     req.TargetTitles,
		"experience_highlights": req.Highlights,
		"application_data":      req.ProfileContext,
		"answer_style":          answerStyle(req.Short),
		"max_character_length":  maxChars,
		"allow_salary_mention":  req.AllowSalary,
	}

	content, err := c.complete(ctx, chatRequest{
		Model: c.answerModel,
		Messages: []chatMessage{
			{Role: "system", Content: buildAnswerSystemPrompt(maxChars)},
			{Role: "user", Content: mustJSON(userMsg)},
		},
		Temperature: 0.45,
		MaxTokens:   260,
	})
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(content)
	if req.Short {
		answer = clampShortAnswer(answer)
	}
	return truncate(answer, maxChars), nil
}

// PickOption asks the model for one option and snaps its reply onto the
// closed set; an unmatched reply falls back to the first option.
func (c *openaiClient) PickOption(ctx context.Context, req PickRequest) (string, error) {
	if len(req.Options) == 0 {
		return "", fmt.Errorf("no options to pick from")
	}

	content, err := c.complete(ctx, chatRequest{
		Model: c.answerModel,
		Messages: []chatMessage{
			{Role: "system", Content: pickOptionSystemPrompt},
			{Role: "user", Content: buildPickOptionPrompt(req)},
		},
		Temperature: 0.0,
		MaxTokens:   50,
	})
	if err != nil {
		return "", err
	}

	choice := strings.TrimSpace(content)

	for _, opt := range req.Options {
		if strings.EqualFold(choice, opt) {
			return opt, nil
		}
	}
	lower := strings.ToLower(choice)
	for _, opt := range req.Options {
		optLower := strings.ToLower(opt)
		if strings.Contains(lower, optLower) || strings.Contains(optLower, lower) {
			return opt, nil
		}
	}

	return req.Options[0], nil
}

// PickCheckboxLabels asks for a JSON array of applicable labels; anything the
// model returns that is not a real label is dropped.
func (c *openaiClient) PickCheckboxLabels(ctx context.Context, req PickRequest) ([]string, error) {
	content, err := c.complete(ctx, chatRequest{
		Model: c.answerModel,
		Messages: []chatMessage{
			{Role: "system", Content: pickCheckboxSystemPrompt},
			{Role: "user", Content: buildPickCheckboxPrompt(req)},
		},
		Temperature: 0.2,
		MaxTokens:   120,
	})
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(content)), &raw); err != nil {
		return nil, fmt.Errorf("checkbox selection was not a JSON array: %w", err)
	}

	valid := make(map[string]string, len(req.Options))
	for _, opt := range req.Options {
		valid[strings.ToLower(strings.TrimSpace(opt))] = opt
	}

	var selected []string
	for _, label := range raw {
		if opt, ok := valid[strings.ToLower(strings.TrimSpace(label))]; ok {
			selected = append(selected, opt)
		}
	}
	return selected, nil
}

func answerStyle(short bool) string {
	if short {
		return "short"
	}
	return "long"
}

// clampShortAnswer restricts a short-mode reply to at most three bare words.
func clampShortAnswer(answer string) string {
	tokens := strings.Fields(answer)
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	clean := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.Trim(t, ".,;:!?\"'")
		if t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return "Yes"
	}
	return strings.Join(clean, " ")
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > max {
		return strings.TrimSpace(string(runes[:max]))
	}
	return s
}

// cleanMarkdownJSON removes backticks and "json" prefix if the model tries to
// be helpful
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
