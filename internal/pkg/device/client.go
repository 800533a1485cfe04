// Package device talks to the biometric bridge agent that fronts the
// attendance terminals. The agent exposes buffered punch logs over HTTP.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/punch"
)

// CommunicationError reports an unreachable, slow or misbehaving bridge.
type CommunicationError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *CommunicationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("device communication failed during %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("device communication failed during %s: %v", e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *CommunicationError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns nil when no bridge URL is configured.
func NewClient(cfg config.DeviceConfig) *Client {
	if cfg.BaseURL == "" {
		return nil
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type logsResponse struct {
	Logs []punch.LogEntry `json:"logs"`
}

// FetchLogs pulls logs recorded at or after since.
func (c *Client) FetchLogs(ctx context.Context, since time.Time) ([]punch.LogEntry, error) {
	u := c.baseURL + "/logs?since=" + url.QueryEscape(since.Format(time.RFC3339))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build device request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		} else if urlErr := (*url.Error)(nil); errors.As(err, &urlErr) && urlErr.Timeout() {
			err = context.DeadlineExceeded
		}
		return nil, &CommunicationError{Op: "fetch logs", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &CommunicationError{Op: "fetch logs", StatusCode: resp.StatusCode}
	}

	var body logsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &CommunicationError{Op: "decode logs", Err: err}
	}
	return body.Logs, nil
}
