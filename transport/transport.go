// Package transport is the single HTTP choke point for the SpendWise client.
// Every domain service funnels its calls through Client, which applies an
// ordered pipeline of request stages (token attachment, throttling) and
// response stages (auth invalidation, logging, metrics) and classifies every
// failure into the shared error taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hien-duc/spendwise-go/pkg/errs"
	"github.com/hien-duc/spendwise-go/pkg/logger"
)

const maxResponseBody = 8 << 20

// Descriptor describes one request. It is immutable once passed to Do.
type Descriptor struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-marshaled when non-nil.
	Body any
	// Timeout overrides the client timeout for this call.
	Timeout time.Duration
	// AllowStatuses lists non-2xx statuses the caller wants returned as a
	// plain response instead of an HTTPError. 401 is never suppressible;
	// auth-expiry handling is not a per-call decision.
	AllowStatuses []int
}

// Response is the resolved outcome of a request.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header

	// Request metadata for response stages (logging, metrics).
	Method   string
	Path     string
	Duration time.Duration
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// RequestStage runs before a request is sent. Returning an error aborts the
// request without any I/O.
type RequestStage func(ctx context.Context, req *http.Request) error

// ResponseStage runs after a response is received, in registration order.
// Returning an error aborts the remaining stages and surfaces to the caller.
type ResponseStage func(ctx context.Context, resp *Response) error

// Config holds client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:3000/api".
	BaseURL string
	// Timeout applies to every call; callers can override per Descriptor.
	// Defaults to 30s.
	Timeout time.Duration
	// Headers are sent on every request.
	Headers map[string]string
	// HTTPClient overrides the underlying client. Timeout is left to ctx.
	HTTPClient *http.Client

	RequestStages  []RequestStage
	ResponseStages []ResponseStage

	Logger *logger.Logger
}

// Client executes requests against the backend API.
type Client struct {
	baseURL        string
	timeout        time.Duration
	headers        map[string]string
	httpClient     *http.Client
	requestStages  []RequestStage
	responseStages []ResponseStage
	log            *logger.Logger
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:        timeout,
		headers:        cfg.Headers,
		httpClient:     httpClient,
		requestStages:  cfg.RequestStages,
		responseStages: cfg.ResponseStages,
		log:            log.Component("transport"),
	}, nil
}

// Do executes the described request through the stage pipeline.
func (c *Client) Do(ctx context.Context, desc Descriptor) (*Response, error) {
	timeout := desc.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + desc.Path
	if len(desc.Query) > 0 {
		reqURL += "?" + desc.Query.Encode()
	}

	var reader io.Reader
	if desc.Body != nil {
		data, err := json.Marshal(desc.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if desc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	for _, stage := range c.requestStages {
		if err := stage(ctx, req); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{URL: reqURL, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, &errs.NetworkError{URL: reqURL, Err: err}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Header:     httpResp.Header,
		Method:     desc.Method,
		Path:       desc.Path,
		Duration:   time.Since(start),
	}

	for _, stage := range c.responseStages {
		if err := stage(ctx, resp); err != nil {
			return resp, err
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return resp, &errs.AuthError{Reason: "request rejected as unauthorized"}
	case resp.StatusCode >= 400 && !statusAllowed(desc.AllowStatuses, resp.StatusCode):
		return resp, &errs.HTTPError{
			Status: resp.StatusCode,
			Method: desc.Method,
			Path:   desc.Path,
			Body:   body,
		}
	}
	return resp, nil
}

func statusAllowed(allowed []int, status int) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Descriptor{Method: http.MethodDelete, Path: path})
}
