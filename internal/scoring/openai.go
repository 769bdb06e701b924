package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default values for the OpenAI provider.
const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "gpt-4o"
	defaultOpenAIMaxTokens  = 150
	defaultOpenAIRetryDelay = 2 * time.Second
)

// chatRequest represents the OpenAI Chat Completions API request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage represents a single message in the chat conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents the OpenAI Chat Completions API response body.
type chatResponse struct {
	ID      string       `json:"id"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// chatChoice represents a single completion choice.
type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chatUsage contains token usage information.
type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// openAIErrorResponse represents an error response from the OpenAI API.
type openAIErrorResponse struct {
	Error openAIErrorDetail `json:"error"`
}

// openAIErrorDetail contains error details from the OpenAI API.
type openAIErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// OpenAIProvider implements CompletionService using the OpenAI Chat
// Completions API.
type OpenAIProvider struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	maxRetries  int
	retryDelay  time.Duration
}

// OpenAIConfig holds the parameters needed to create an OpenAI provider.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the model identifier (e.g., "gpt-4o").
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
	// Temperature controls output randomness.
	Temperature float64
	// MaxTokens caps the completion length (0 means default).
	MaxTokens int
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts on transient errors.
	MaxRetries int
}

var _ CompletionService = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI completion provider.
//
// Transient API errors (5xx and 429) are retried up to MaxRetries times with
// linear backoff.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &OpenAIProvider{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		maxRetries:  maxRetries,
		retryDelay:  defaultOpenAIRetryDelay,
	}
}

// NewOpenAIProviderWithHTTPClient creates an OpenAI provider with a custom
// HTTP client and no retry delay, for testing.
func NewOpenAIProviderWithHTTPClient(cfg OpenAIConfig, httpClient *http.Client) *OpenAIProvider {
	p := NewOpenAIProvider(cfg)
	p.httpClient = httpClient
	p.retryDelay = 0
	return p
}

// Complete sends the system and user messages to the Chat Completions API and
// returns the raw content of the first choice.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	chatReq := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("openai: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		content, err := p.doRequest(ctx, chatReq)
		if err == nil {
			return content, nil
		}

		// Only retry on transient errors (5xx, 429).
		if !isTransientError(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("openai: exhausted %d retries: %w", p.maxRetries, lastErr)
}

// Provider returns the name of the LLM provider.
func (p *OpenAIProvider) Provider() string {
	return "openai"
}

// Model returns the model identifier being used.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// doRequest performs a single API request to the Chat Completions endpoint.
func (p *OpenAIProvider) doRequest(ctx context.Context, chatReq chatRequest) (string, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	endpoint := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("openai: failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseOpenAIAPIError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("openai: failed to unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// parseOpenAIAPIError parses an OpenAI API error from the response status
// code and body.
func parseOpenAIAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		Provider:   "openai",
		StatusCode: statusCode,
		Message:    string(body),
	}

	var errResp openAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.Type = errResp.Error.Type
		apiErr.Code = errResp.Error.Code
	}

	return apiErr
}
