// Package renderer submits HTML documents to an external PDF rendering
// service and relays the produced PDF.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/focused-api/pkg/config"
)

const (
	renderPath   = "/render"
	pdfMediaType = "application/pdf"
)

var (
	// ErrUnreachable covers connection failures and timeouts.
	ErrUnreachable = errors.New("pdf renderer unreachable")
	// ErrBadResponse covers non-2xx answers and non-PDF bodies.
	ErrBadResponse = errors.New("pdf renderer error")
)

// Document is a rendered PDF stream. Length is -1 when unknown.
type Document struct {
	Body   io.ReadCloser
	Length int64
}

// Client posts HTML to the rendering service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient constructs a renderer client with a fixed timeout.
func NewClient(cfg config.RendererConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Render submits html and returns the PDF body. The caller must close
// Document.Body.
func (c *Client) Render(ctx context.Context, html string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+renderPath, strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("Accept", pdfMediaType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, strings.TrimSpace(string(preview)))
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != pdfMediaType {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrBadResponse, resp.Header.Get("Content-Type"))
	}

	return &Document{Body: resp.Body, Length: resp.ContentLength}, nil
}
