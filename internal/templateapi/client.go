// Package templateapi is a client for the RAG template service.
//
// The service owns the prompt template used for retrieval-augmented chat and
// serves it at {base}/template to any authenticated user. Admins can read and
// change it, together with the retrieval top-k, under {base}/query/settings.
package templateapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorewood/ragprompt/internal/output"
)

// DefaultTimeout bounds a single request when no HTTPDoer is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is echoed back.
const maxErrorBody = 500

// maxResponseBody caps how much of any response is read.
const maxResponseBody = 4 << 20

// HTTPDoer defines the HTTP operations required by Client.
// This allows injection of test doubles for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to one template service.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPDoer replaces the underlying HTTP client.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the timeout of the default HTTP client.
// A zero timeout means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// New creates a client for the service rooted at baseURL,
// e.g. "http://localhost:8080/rag/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// templateResponse is the body of GET /template.
type templateResponse struct {
	Status   bool    `json:"status"`
	Template *string `json:"template"`
}

// GetTemplate fetches the current template with the given bearer token.
// A body without a string "template" field is treated as malformed.
func (c *Client) GetTemplate(ctx context.Context, token string) (string, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/template", token, nil)
	if err != nil {
		return "", err
	}

	var result templateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", output.NewSystemErrorWithCause("failed to parse template response", err)
	}
	if result.Template == nil {
		return "", output.NewSystemError("template response has no template field")
	}
	return *result.Template, nil
}

// FetchTemplate implements ragtemplate.Fetcher.
func (c *Client) FetchTemplate(ctx context.Context, credential string) (string, error) {
	return c.GetTemplate(ctx, credential)
}

// do sends a request with an optional JSON body and returns the response
// body of a 200 response.
func (c *Client) do(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, output.NewSystemErrorWithCause("failed to marshal request", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to create request", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// errorResponse is the service's error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// statusError builds an error for a non-200 response. Credential problems
// are user errors; anything else is a system error.
func statusError(status int, body []byte) error {
	message := ""
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		message = parsed.Detail
	} else {
		message = truncateUTF8(string(body), maxErrorBody)
	}

	text := fmt.Sprintf("template service error (status %d): %s", status, message)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return output.NewUserError(text)
	}
	return output.NewSystemError(text)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
