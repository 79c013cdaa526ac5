// Package backend is the client for the AI backend that generates interview
// question and answer transcripts from a stored report.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ruchit878/smart-job-kit-generator/internal/observability/metrics"
)

const opGenerateQA = "generate_question_answers"

var ErrMissingReportID = errors.New("report id is required")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// Retryable reports whether the failure is worth retrying.
func (e *StatusError) Retryable() bool {
	return e.Code >= http.StatusInternalServerError
}

// Config holds backend client configuration.
type Config struct {
	BaseURL    string // must end with '/'
	Timeout    time.Duration
	MaxRetries int
}

// Client calls the AI backend.
type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	backoff    func(attempt int) time.Duration
	metrics    *metrics.Metrics
}

// New creates a backend client. At least one attempt is always made.
func New(cfg Config) *Client {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		http:       &http.Client{Timeout: cfg.Timeout},
		maxRetries: attempts,
		backoff: func(attempt int) time.Duration {
			return time.Duration(500*(attempt+1)) * time.Millisecond
		},
		metrics: metrics.DefaultMetrics,
	}
}

type generateResponse struct {
	QuestionAnswers string `json:"question_answers"`
}

// GenerateQuestionAnswers asks the backend for the raw Q&A transcript of a
// report. A missing question_answers field yields an empty string.
func (c *Client) GenerateQuestionAnswers(ctx context.Context, reportID string) (string, error) {
	if reportID == "" {
		return "", ErrMissingReportID
	}

	start := time.Now()
	raw, err := retry(ctx, c.maxRetries, c.backoff, func() (string, error) {
		return c.generateOnce(ctx, reportID)
	})
	c.metrics.RecordBackendCall(opGenerateQA, err, time.Since(start).Seconds())

	if err != nil {
		log.Error().Err(err).Str("reportId", reportID).Msg("Q&A generation failed")
		return "", err
	}
	return raw, nil
}

func (c *Client) generateOnce(ctx context.Context, reportID string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("report_id", reportID); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"generate-question-answers", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Body: truncate(string(payload), 512)}
	}

	var out generateResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", permanent(fmt.Errorf("decode backend response: %w", err))
	}
	return out.QuestionAnswers, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
