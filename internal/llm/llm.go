// Package llm sends resolved prompts to an OpenAI-compatible chat
// completions endpoint, either OpenAI itself or a local server such as
// LM Studio or Ollama.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorewood/ragprompt/internal/output"
)

const (
	maxResponseBody = 8 << 20
	maxErrorBody    = 500
)

// Provider represents an LLM provider.
type Provider string

// Supported LLM providers.
const (
	ProviderOpenAI Provider = "openai"
	ProviderLocal  Provider = "local"
)

// Default endpoints, overridable with OPENAI_BASE_URL and LOCAL_LLM_URL.
const (
	DefaultOpenAIURL = "https://api.openai.com/v1"
	DefaultLocalURL  = "http://localhost:1234/v1"
)

// Request represents an LLM completion request.
type Request struct {
	System      string  // System prompt
	Prompt      string  // User prompt, typically a resolved RAG prompt
	Temperature float64 // 0 uses the server default
	MaxTokens   int     // 0 uses the server default
}

// Response represents an LLM completion response.
type Response struct {
	Content string
	Model   string
}

// HTTPDoer defines the HTTP operations required by Client.
// This allows injection of test doubles for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a chat completions client for one provider and model.
type Client struct {
	provider   Provider
	model      string
	apiKey     string
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
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// New creates a client for model. Model may carry a provider prefix
// ("openai-mini", "local-qwen"); otherwise the provider is inferred from the
// name when not given explicitly.
func New(model string, provider Provider, opts ...Option) (*Client, error) {
	if provider == "" {
		provider, model = parseProviderPrefix(model)
	}
	if provider == "" {
		provider = inferProvider(model)
	}

	baseURL, err := baseURLFor(provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := getAPIKey(provider)
	if err != nil {
		return nil, err
	}

	c := &Client{
		provider:   provider,
		model:      resolveModelAlias(model, provider),
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider returns the client's provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Model returns the resolved model name.
func (c *Client) Model() string {
	return c.model
}

// providerPrefixes maps explicit prefixes to providers.
var providerPrefixes = map[string]Provider{
	"openai-": ProviderOpenAI,
	"local-":  ProviderLocal,
}

// parseProviderPrefix extracts provider from combined format like "openai-mini".
// Returns empty provider if no prefix matches.
func parseProviderPrefix(model string) (Provider, string) {
	modelLower := strings.ToLower(model)
	for prefix, provider := range providerPrefixes {
		if strings.HasPrefix(modelLower, prefix) {
			return provider, model[len(prefix):]
		}
	}
	return "", model
}

// openAIPatterns are substrings of OpenAI model names. Anything else is
// assumed to be served locally.
var openAIPatterns = []string{"gpt", "nano", "mini", "o1", "o3", "o4"}

// inferProvider guesses the provider from the model name.
func inferProvider(model string) Provider {
	modelLower := strings.ToLower(model)
	for _, pattern := range openAIPatterns {
		if strings.Contains(modelLower, pattern) {
			return ProviderOpenAI
		}
	}
	return ProviderLocal
}

// modelAliases are convenient shorthands; unknown names pass through.
var modelAliases = map[Provider]map[string]string{
	ProviderOpenAI: {
		"nano": "gpt-5-nano",
		"mini": "gpt-5-mini",
		"gpt":  "gpt-5.2",
	},
	ProviderLocal: {
		"local": "default",
	},
}

func resolveModelAlias(model string, provider Provider) string {
	if aliases, ok := modelAliases[provider]; ok {
		if resolved, ok := aliases[strings.ToLower(model)]; ok {
			return resolved
		}
	}
	return model
}

func baseURLFor(provider Provider) (string, error) {
	switch provider {
	case ProviderOpenAI:
		return envOr("OPENAI_BASE_URL", DefaultOpenAIURL), nil
	case ProviderLocal:
		return envOr("LOCAL_LLM_URL", DefaultLocalURL), nil
	default:
		return "", output.NewUserError(fmt.Sprintf("unsupported provider: %s", provider))
	}
}

func getAPIKey(provider Provider) (string, error) {
	switch provider {
	case ProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return "", output.NewUserError("OPENAI_API_KEY environment variable not set")
		}
		return key, nil
	case ProviderLocal:
		return "", nil
	default:
		return "", output.NewUserError(fmt.Sprintf("unsupported provider: %s", provider))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimRight(v, "/")
	}
	return fallback
}

// SupportedProviders returns a list of supported providers.
func SupportedProviders() []string {
	return []string{string(ProviderOpenAI), string(ProviderLocal)}
}

// doRequest performs an HTTP POST request with JSON body.
func (c *Client) doRequest(ctx context.Context, url string, body any) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to create request", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
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
		// Truncate error body to prevent sensitive data leakage and memory issues
		errBody := string(respBody)
		if len(errBody) > maxErrorBody {
			cut := maxErrorBody
			for cut > 0 && !utf8.RuneStart(errBody[cut]) {
				cut--
			}
			errBody = errBody[:cut]
		}
		return nil, output.NewSystemError(fmt.Sprintf("API error (status %d): %s", resp.StatusCode, errBody))
	}

	return respBody, nil
}
