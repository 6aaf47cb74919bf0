// Package backend is an HTTP client for the SpotDown job processor API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbriolat/spotdown/internal/metrics"
)

const DefaultBaseURL = "http://localhost:8000"

const (
	endpointInfo     = "info"
	endpointDownload = "download"
	endpointProgress = "progress"
	endpointSettings = "settings"
)

var (
	ErrInvalidBaseURL = errors.New("invalid backend base URL")
	ErrEmptyTaskID    = errors.New("empty task id")
)

// StatusError is returned for any non-2xx response. Detail holds the backend's explanation when it sent one.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *zap.SugaredLogger
}

// NewClient creates a Client for the backend at baseURL. If httpClient is nil, a client with a 30s timeout is used.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: u,
		http:    httpClient,
		log:     zap.S().Named("backend"),
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Info asks the resolver to describe sourceURL.
func (c *Client) Info(ctx context.Context, sourceURL string) (*InfoResponse, error) {
	var resp InfoResponse
	if err := c.do(ctx, endpointInfo, http.MethodPost, "/api/info", InfoRequest{URL: sourceURL}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download asks the job processor to start a job. A successful response without a task id is not an error here;
// the caller decides what that means.
func (c *Client) Download(ctx context.Context, req DownloadRequest) (*DownloadResponse, error) {
	var resp DownloadResponse
	if err := c.do(ctx, endpointDownload, http.MethodPost, "/api/download", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Progress fetches the current status of a job.
func (c *Client) Progress(ctx context.Context, taskID string) (*Progress, error) {
	if taskID == "" {
		return nil, ErrEmptyTaskID
	}
	var resp Progress
	path := "/api/progress/" + url.PathEscape(taskID)
	if err := c.do(ctx, endpointProgress, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var resp Settings
	if err := c.do(ctx, endpointSettings, http.MethodGet, "/api/settings", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveSettings(ctx context.Context, settings Settings) error {
	return c.do(ctx, endpointSettings, http.MethodPost, "/api/settings", settings, nil)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, body, out interface{}) error {
	op := method + " " + path
	outcome := metrics.OutcomeOK
	defer func() {
		metrics.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
	}()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.With("request_id", requestID)
	log.Debugf("%s", op)
	resp, err := c.http.Do(req)
	if err != nil {
		outcome = metrics.OutcomeTransportError
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = metrics.OutcomeTransportError
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = metrics.OutcomeStatusError
		log.Debugf("%s: status %d", op, resp.StatusCode)
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		outcome = metrics.OutcomeDecodeError
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

const maxRawDetail = 200

// errorDetail extracts FastAPI's {"detail": ...} payload. Validation errors carry a list rather than a string, in
// which case the raw JSON is returned.
func errorDetail(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		detail := strings.TrimSpace(string(data))
		if len(detail) > maxRawDetail {
			cut := maxRawDetail
			for cut > 0 && !utf8.RuneStart(detail[cut]) {
				cut--
			}
			detail = detail[:cut] + "..."
		}
		return detail
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	return string(body.Detail)
}
