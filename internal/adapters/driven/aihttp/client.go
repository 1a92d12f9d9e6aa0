// Package aihttp sends JSON requests to hosted AI provider APIs. Failures
// are mapped onto domain errors through aierr so the revision controller can
// tell a rate limit from an outage.
package aihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/folio/internal/adapters/driven/aierr"
)

// maxResponse bounds how much of a response body is read.
const maxResponse = 128 << 20

// Config holds configuration for a Client.
type Config struct {
	// Provider names the service in errors ("openai", "anthropic").
	Provider string

	// BaseURL is prefixed to every request path. Trailing slashes are dropped.
	BaseURL string

	// Timeout bounds a single request. Zero means no timeout.
	Timeout time.Duration

	// Header is sent with every request (authentication, API version).
	Header http.Header

	// Unavailable is the sentinel wrapped on outages, for example
	// domain.ErrLLMUnavailable.
	Unavailable error
}

// Client performs JSON requests against one provider.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client.
func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Header == nil {
		cfg.Header = http.Header{}
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Post sends in as JSON to path and decodes a 200 response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.cfg.Provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.cfg.Provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Get fetches path and decodes a 200 response into out. out may be nil when
// only the status matters, as in a ping.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.cfg.Provider, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	for key, values := range c.cfg.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return aierr.Transport(c.cfg.Provider, err, c.cfg.Unavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return aierr.Transport(c.cfg.Provider, err, c.cfg.Unavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return aierr.FromStatus(c.cfg.Provider, resp.StatusCode, body, c.cfg.Unavailable)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.cfg.Provider, err)
	}
	return nil
}
