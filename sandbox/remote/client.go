package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client executes requests against the execution service.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Execute and Cancel must honor cancellation and deadlines.
// - Errors: transport and protocol problems are returned as errors;
//   program failures travel inside the Response.
type Client interface {
	// Execute provisions a sandbox, runs the program, and returns the
	// service response.
	Execute(ctx context.Context, req Request) (Response, error)

	// Cancel asks the service to destroy the sandbox for a request.
	Cancel(ctx context.Context, requestID string) error
}

// Request is the wire request to the execution service.
type Request struct {
	RequestID     string `json:"requestId"`
	Code          string `json:"code"`
	Language      string `json:"language"`
	TimeoutMillis int64  `json:"timeoutMs"`
}

// Response is the wire response from the execution service.
type Response struct {
	Stdout    string          `json:"stdout"`
	Result    json.RawMessage `json:"result,omitempty"`
	SandboxID string          `json:"sandboxId,omitempty"`
	Error     *ServiceError   `json:"error,omitempty"`
}

// ServiceError is a program failure reported by the execution service.
type ServiceError struct {
	Message    string `json:"message"`
	StackTrace string `json:"stackTrace,omitempty"`
}

// maxErrorBodyBytes caps how much of a non-2xx response body is read for
// the error message.
const maxErrorBodyBytes = 4 * 1024

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL string
	hc      *http.Client
	token   string
}

var _ Client = (*HTTPClient)(nil)

// HTTPOption customizes an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithToken sets a bearer token sent on every request.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		c.token = token
	}
}

// NewHTTPClient creates a client for the execution service at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured service URL for diagnostics.
func (c *HTTPClient) Endpoint() string {
	return c.baseURL
}

// Execute POSTs the request to the executions endpoint and decodes the
// response.
func (c *HTTPClient) Execute(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/executions", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBodyBytes))
		return Response{}, fmt.Errorf("%w: status %d: %s",
			ErrServiceUnavailable, httpResp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Cancel DELETEs the execution, destroying its sandbox.
func (c *HTTPClient) Cancel(ctx context.Context, requestID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/executions/"+requestID, nil)
	if err != nil {
		return err
	}
	c.authorize(httpReq)

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer httpResp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxErrorBodyBytes))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrServiceUnavailable, httpResp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
