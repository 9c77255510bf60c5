// Package client talks to a running azcost dashboard server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/azcost/internal/model"
	"github.com/theirongolddev/azcost/internal/server"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
	userAgent      = "azcost-cli/1.0"
)

var (
	// ErrNoSummary indicates nothing has been uploaded to the server yet.
	ErrNoSummary = errors.New("client: no summary uploaded yet")
	// ErrBusy indicates another upload is still being processed.
	ErrBusy = errors.New("client: server is processing another upload")
)

// Error is a non-2xx response carrying the server's error envelope.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("client: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("client: %s: %s", e.Code, e.Message)
}

// Is lets errors.Is match the sentinel errors by status code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNoSummary:
		return e.StatusCode == http.StatusNotFound
	case ErrBusy:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// Client calls the /api/v1 endpoints of one server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for addr, which may be host:port or a full URL.
// Returns nil if addr is empty.
func New(addr string) *Client {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if addr == "" {
		return nil
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL: addr,
		http:    &http.Client{},
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Status fetches the server's upload state.
func (c *Client) Status(ctx context.Context) (*server.Status, error) {
	var st server.Status
	if err := c.getJSON(ctx, "/api/v1/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Summary fetches the current dashboard summary.
func (c *Client) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	var s model.DashboardSummary
	if err := c.getJSON(ctx, "/api/v1/summary", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upload sends a CSV file and returns the summary the server built from it.
func (c *Client) Upload(ctx context.Context, path string) (*model.DashboardSummary, error) {
	//nolint:gosec // upload path is supplied by the local user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("client: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return c.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader streams r as the multipart "file" field named name.
func (c *Client) UploadReader(ctx context.Context, name string, r io.Reader) (*model.DashboardSummary, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	// Large files may take longer than requestTimeout to parse, so the
	// caller's context bounds uploads.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/upload", pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("client: creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var s model.DashboardSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("client: parsing summary: %w", err)
	}
	return &s, nil
}

// Export downloads the current summary in format and writes it to w.
func (c *Client) Export(ctx context.Context, format string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/export/"+format, nil)
	if err != nil {
		return fmt.Errorf("client: creating request: %w", err)
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("client: reading export: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: creating request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("client: parsing %s: %w", path, err)
	}
	return nil
}

// do sends req and returns the response body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}
	return body, nil
}

// send performs req and converts non-2xx responses into *Error.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: request failed: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	apiErr := &Error{StatusCode: resp.StatusCode}
	var envelope struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
		apiErr.RequestID = envelope.RequestID
	}
	return nil, apiErr
}
