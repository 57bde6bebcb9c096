// Package remote fetches session statistics served by other ocburn devices.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/theirongolddev/ocburn/internal/model"
)

const (
	// DefaultTimeout bounds one device fetch from request to last byte.
	DefaultTimeout = 3 * time.Second
	maxBodySize    = 32 << 20 // 32 MB
	sessionsPath   = "/api/sessions?scope=local"
)

var (
	// ErrUnreachable indicates the device did not answer within the timeout.
	ErrUnreachable = errors.New("remote: device unreachable")
	// ErrBadStatus indicates the device answered with a non-2xx status.
	ErrBadStatus = errors.New("remote: unexpected status")
)

// Client fetches a device's locally computed sessions.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a client with the given per-fetch timeout. A zero or
// negative timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{},
		timeout: timeout,
	}
}

// FetchSessions returns the sessions the device at baseURL computed from its
// own store. Sessions that are not JSON objects are dropped; every scalar in
// the rest is coerced, so one device's odd field types never fail the fetch.
func (c *Client) FetchSessions(ctx context.Context, baseURL string) ([]model.SessionStats, error) {
	body, err := c.get(ctx, SessionsURL(baseURL))
	if err != nil {
		return nil, err
	}

	var resp sessionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("remote: parsing sessions: %w", err)
	}

	out := make([]model.SessionStats, 0, len(resp.Sessions))
	for _, raw := range resp.Sessions {
		var ws wireSession
		if !decodeObject(raw, &ws) {
			continue
		}
		out = append(out, ws.toModel())
	}
	return out, nil
}

// SessionsURL returns the local-scope sessions endpoint of a device.
func SessionsURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + sessionsPath
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/ocburn/1.0")

	//nolint:gosec // URL comes from the user's device registry
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d", ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnreachable, err)
	}
	return body, nil
}
