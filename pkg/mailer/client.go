// Package mailer talks to the external mail microservice that emails
// observation summaries to teachers.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/focused-api/pkg/config"
)

const (
	observationPath = "/mail/observation"
	apiKeyHeader    = "X-API-KEY"
	bodyPreviewSize = 200
)

// ObservationMail is the JSON contract accepted by the mail service.
type ObservationMail struct {
	ObservationID  int64   `json:"observation_id"`
	ToEmail        *string `json:"to_email"`
	TeacherName    string  `json:"teacher_name"`
	ObsDate        string  `json:"obs_date"`
	DepartmentName *string `json:"department_name"`
	ClassName      *string `json:"class_name"`
	FocusArea      *string `json:"focus_area"`
	Strengths      *string `json:"strengths"`
	Weaknesses     *string `json:"weaknesses"`
	Comments       *string `json:"comments"`
	PDFURL         string  `json:"pdf_url"`
}

// Result is the outcome of one delivery attempt. A failed attempt carries a
// human-readable Reason instead of an error.
type Result struct {
	OK         bool
	StatusCode int
	Reason     string
}

// Client posts observation mails with a fixed timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient constructs a mail service client.
func NewClient(cfg config.MailerConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

// SendObservation delivers mail to the mail service. It never returns an
// error: transport failures and non-2xx answers are reported in the Result.
func (c *Client) SendObservation(ctx context.Context, mail ObservationMail) Result {
	if c.apiKey == "" {
		c.logger.Warn("mailer api key is empty", zap.Int64("observation_id", mail.ObservationID))
	}

	body, err := json.Marshal(mail)
	if err != nil {
		return Result{Reason: fmt.Sprintf("encode payload: %v", err)}
	}

	url := c.baseURL + observationPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Reason: fmt.Sprintf("post %s: %v", url, err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	preview, _ := io.ReadAll(io.LimitReader(resp.Body, bodyPreviewSize))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("mail service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(preview))),
		}
	}
	return Result{OK: true, StatusCode: resp.StatusCode}
}
