// Package apiclient is the network client abstraction used by the analytics
// provider and the 3DS2 submitters. Requests are typed values that describe
// their own method, path and query; the request value itself is the JSON body.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Request describes one API call.
type Request interface {
	Method() string
	Path() string
	Query() url.Values
}

// Performer executes a request and decodes the JSON response into out.
// out may be nil when the response body is not needed.
type Performer interface {
	Perform(ctx context.Context, req Request, out any) error
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. Its transport is used as is.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// Client is a JSON-over-HTTP Performer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

var _ Performer = (*Client)(nil)

// New creates a client for the given base URL. The default HTTP client
// is instrumented with OpenTelemetry.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Perform sends req and decodes a 2xx response into out.
func (c *Client) Perform(ctx context.Context, req Request, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimPrefix(req.Path(), "/")
	if q := req.Query(); len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body io.Reader
	if req.Method() != http.MethodGet {
		payload, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &NetworkError{Path: req.Path(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Path: req.Path(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Path: req.Path(), Err: err}
	}
	return nil
}
