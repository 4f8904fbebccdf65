// Package gatewayclient is the HTTP client side of the execution gateway's
// REST surface, used by the protocol proxy to forward tool calls.
package gatewayclient

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

	"github.com/jarscope/jarscope/internal/pipeline"
)

// DefaultTimeout bounds one forwarded call. Resolution involves remote
// fetches, so the proxy-side budget is deliberately long; it is still a
// bound, independent of the gateway-side process timeouts.
const DefaultTimeout = 5 * time.Minute

// healthTimeout bounds the upstream liveness probe.
const healthTimeout = 5 * time.Second

// Client calls the execution gateway's REST endpoints.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the gateway base URL the client targets.
func (c *Client) BaseURL() string {
	return c.base
}

// Analyze forwards a resolve+locate request.
func (c *Client) Analyze(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.AnalysisResult, error) {
	var result pipeline.AnalysisResult
	if err := c.post(ctx, "/analyze", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Decompile forwards a decompile-one request.
func (c *Client) Decompile(ctx context.Context, req pipeline.DecompileRequest) (*pipeline.DecompiledUnit, error) {
	var unit pipeline.DecompiledUnit
	if err := c.post(ctx, "/decompile", req, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindAndDecompile forwards a resolve+locate+decompile-all request.
func (c *Client) FindAndDecompile(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.CombinedResult, error) {
	var result pipeline.CombinedResult
	if err := c.post(ctx, "/find_and_decompile", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Healthy probes the gateway's liveness endpoint. It reports reachability
// rather than returning an error so callers can relay both statuses.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// post performs one JSON request/response round trip. Transport failures,
// including proxy-side timeouts, surface as KindUpstreamUnreachable —
// distinct from gateway-reported tool failures, which are decoded from the
// structured error body and relayed verbatim.
func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gatewayclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gatewayclient: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return pipeline.Errorf(pipeline.KindUpstreamUnreachable,
				"gateway call %s timed out", path)
		}
		return pipeline.Errorf(pipeline.KindUpstreamUnreachable,
			"gateway unreachable at %s: %v", c.base, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return pipeline.Errorf(pipeline.KindUpstreamUnreachable,
			"read gateway response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error *pipeline.Error `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			return errResp.Error
		}
		return pipeline.Errorf(pipeline.KindUpstreamUnreachable,
			"gateway %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("gatewayclient: decode result: %w", err)
		}
	}
	return nil
}
