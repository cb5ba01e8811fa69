// Package gemini implements the AI model client used for study content
// generation and assignment grading. All communication with the model
// endpoint goes through this package.
//
// The model is slow and fallible, so every call passes through client-side
// pacing (token bucket), a circuit breaker, and bounded retries with
// exponential backoff. Callers see either a usable result or a classified
// error; partial model output never escapes.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Rashid-RG/gemini-lms-sub003/pkg/circuitbreaker"
	"github.com/Rashid-RG/gemini-lms-sub003/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the model API client.
type ClientConfig struct {
	// BaseURL is the model API base URL
	BaseURL string

	// APIKey authenticates requests
	APIKey string

	// Model is the model identifier (e.g. "gemini-1.5-flash")
	Model string

	// Timeout is the HTTP request timeout. Model calls are slow; this is
	// deliberately generous.
	Timeout time.Duration

	// RateLimiterConfig for client-side pacing
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL, apiKey string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		APIKey:            apiKey,
		Model:             "gemini-1.5-flash",
		Timeout:           60 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the model API client.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	logger         *slog.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retrier        *retry.Retrier
}

// NewClient creates a new model API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	logger := config.Logger

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: circuitbreaker.ModelBreaker(func(name string, from, to circuitbreaker.State) {
			logger.Warn("circuit state changed", "breaker", name, "from", from, "to", to)
		}),
		retrier: retry.ModelRetrier(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE TYPES
// ══════════════════════════════════════════════════════════════════════════════

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("model api error %d (%s): %s", e.Code, e.Status, e.Message)
}

// GradeResult is the model's verdict on a submission.
type GradeResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// ══════════════════════════════════════════════════════════════════════════════
// OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GenerateStudyContent asks the model to produce study material of the given
// type for a topic. The returned payload is the model's JSON document,
// validated to parse but otherwise opaque to the pipeline.
func (c *Client) GenerateStudyContent(ctx context.Context, studyType, topic string) (json.RawMessage, error) {
	prompt := buildContentPrompt(studyType, topic)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate %s content for %q: %w", studyType, topic, err)
	}

	payload := extractJSON(text)
	if !json.Valid(payload) {
		return nil, fmt.Errorf("generate %s content for %q: model returned non-JSON payload", studyType, topic)
	}

	return payload, nil
}

// GradeSubmission asks the model to grade a submission against the
// assignment description. Scores are clamped to [0, 100].
func (c *Client) GradeSubmission(ctx context.Context, assignmentDescription, submissionText string) (*GradeResult, error) {
	prompt := buildGradingPrompt(assignmentDescription, submissionText)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("grade submission: %w", err)
	}

	var result GradeResult
	if err := json.Unmarshal(extractJSON(text), &result); err != nil {
		return nil, fmt.Errorf("grade submission: parse verdict: %w", err)
	}

	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}

	return &result, nil
}

// generate performs one prompt round-trip through the pacing, breaker, and
// retry layers.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var text string

	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				return retry.Retryable(fmt.Errorf("rate limiter: %w", err))
			}

			result, err := c.doGenerate(ctx, prompt)
			if err != nil {
				if c.isRetryable(err) {
					var rateLimitErr *RateLimitError
					if errors.As(err, &rateLimitErr) {
						c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
					}
					return retry.Retryable(err)
				}
				return retry.Permanent(err)
			}

			text = result
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return text, nil
}

// doGenerate performs a single HTTP request to the model endpoint.
func (c *Client) doGenerate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	fullURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.config.BaseURL, c.config.Model, c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.Debug {
		c.logger.Debug("model api request", "model", c.config.Model, "prompt_len", len(prompt))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return "", &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "model rate limit exceeded",
		}
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return "", parsed.Error
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("model api error: status %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("model returned no candidates")
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	return sb.String(), nil
}

// isRetryable classifies a model call failure.
func (c *Client) isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusInternalServerError ||
			apiErr.Code == http.StatusServiceUnavailable ||
			apiErr.Status == "RESOURCE_EXHAUSTED"
	}

	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset", "EOF"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// IsHealthy reports whether the circuit toward the model endpoint is closed.
func (c *Client) IsHealthy() bool {
	return c.circuitBreaker.IsClosed()
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.circuitBreaker.Reset()
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTS
// ══════════════════════════════════════════════════════════════════════════════

func buildContentPrompt(studyType, topic string) string {
	var sb strings.Builder
	sb.WriteString("You are generating study material for a learning platform.\n")
	sb.WriteString("Respond with a single JSON document and nothing else.\n\n")

	switch studyType {
	case "Flashcard":
		sb.WriteString(`Produce 10 flashcards as {"cards":[{"front":"...","back":"..."}]}`)
	case "Quiz":
		sb.WriteString(`Produce a 5-question quiz as {"questions":[{"question":"...","answer":"..."}]}`)
	case "MCQ":
		sb.WriteString(`Produce 5 multiple-choice questions as {"questions":[{"question":"...","options":["..."],"correct_index":0}]}`)
	case "qa":
		sb.WriteString(`Produce 5 open questions with model answers as {"pairs":[{"question":"...","answer":"..."}]}`)
	default:
		sb.WriteString(`Produce study notes as {"sections":[{"title":"...","body":"..."}]}`)
	}

	sb.WriteString("\n\nTopic: ")
	sb.WriteString(topic)
	return sb.String()
}

func buildGradingPrompt(assignmentDescription, submissionText string) string {
	var sb strings.Builder
	sb.WriteString("You are grading a student submission for a learning platform.\n")
	sb.WriteString("Respond with a single JSON document and nothing else, in the form\n")
	sb.WriteString(`{"score": <integer 0-100>, "feedback": "<2-4 sentences of constructive feedback>"}`)
	sb.WriteString("\n\nAssignment:\n")
	sb.WriteString(assignmentDescription)
	sb.WriteString("\n\nSubmission:\n")
	sb.WriteString(submissionText)
	return sb.String()
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its JSON output.
func extractJSON(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	return json.RawMessage(trimmed)
}
