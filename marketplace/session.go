// Package marketplace implements the REST client for the freelance
// marketplace: project search, project and owner lookups, and bid
// placement. All calls go through an authenticated Session.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize limits API response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// DefaultBaseURL is the production marketplace API host.
const DefaultBaseURL = "https://www.freelancer.com"

// apiPrefix is the versioned API root shared by all endpoints.
const apiPrefix = "/api"

// Session is an authenticated marketplace API client. The zero value is not
// usable; construct one with NewSession.
type Session struct {
	baseURL    string
	oauthToken string
	httpClient *http.Client
	logger     *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithBaseURL overrides the marketplace host (e.g., the sandbox environment).
func WithBaseURL(u string) SessionOption {
	return func(s *Session) {
		s.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an authenticated marketplace session.
func NewSession(oauthToken string, opts ...SessionOption) *Session {
	s := &Session{
		baseURL:    DefaultBaseURL,
		oauthToken: oauthToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// envelope is the standard marketplace API response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// do performs an API request and decodes the result payload into out.
// A non-2xx status or a non-success envelope status is returned as an error.
func (s *Session) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := s.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Freelancer-OAuth-V1", s.oauthToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("Marketplace request", "method", method, "path", path)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}

	if env.Status != "success" {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}
