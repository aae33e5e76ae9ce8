// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultTimeout bounds a single search call.
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failure response is kept as the message.
	maxErrorBody = 64 * 1024

	// cloudPlatformScope is the OAuth2 scope of Google Cloud APIs.
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Client searches a backend over HTTP.
// It is safe for concurrent use.
type Client struct {
	endpoint   string
	tokens     oauth2.TokenSource
	base       http.RoundTripper
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Backend = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithTokenSource sets the source of bearer tokens.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) error {
		if ts == nil {
			return ErrTokenSourceRequired
		}
		c.tokens = ts
		return nil
	}
}

// WithStaticToken authenticates every call with token.
func WithStaticToken(token string) Option {
	return func(c *Client) error {
		if token == "" {
			return ErrTokenSourceRequired
		}
		c.tokens = StaticTokenSource(token)
		return nil
	}
}

// WithTransport sets the round tripper under the authenticating transport.
// Default is http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) error {
		c.base = rt
		return nil
	}
}

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("retrieval timeout cannot be negative: %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "retrieval")
		return nil
	}
}

// StaticTokenSource returns a token source that always yields token.
func StaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// DefaultTokenSource returns Google application default credentials scoped
// for Cloud Platform APIs.
func DefaultTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("loading application default credentials: %w", err)
	}
	return ts, nil
}

// NewClient creates a client for the search endpoint. A token source must
// be supplied with WithTokenSource or WithStaticToken.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, ErrEndpointRequired
	}

	c := &Client{
		endpoint: endpoint,
		base:     http.DefaultTransport,
		timeout:  DefaultTimeout,
		logger:   slog.Default().With("component", "retrieval"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.tokens == nil {
		return nil, ErrTokenSourceRequired
	}

	c.httpClient = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, c.tokens),
			Base:   c.base,
		},
	}
	return c, nil
}

// Search posts req to the endpoint. A non-2xx reply is returned as a
// *StatusError carrying the reply body.
func (c *Client) Search(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding retrieval request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating retrieval request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("retrieval request failed", "err", err)
		return nil, fmt.Errorf("retrieval request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
		c.logger.Error("retrieval backend rejected request", "status", resp.StatusCode, "message", statusErr.Message)
		return nil, statusErr
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	c.logger.Debug("retrieval complete", "results", len(out.Results), "elapsed", time.Since(start))
	return &out, nil
}
