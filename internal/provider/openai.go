package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the OpenAI-compatible provider.
const (
	DefaultBaseURL   = "https://api.openai.com"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 1024
	DefaultTimeout   = 60 * time.Second
)

// Compile-time interface check.
var _ Provider = (*OpenAIProvider)(nil)

// OpenAIConfig configures the OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string        // endpoint base, default https://api.openai.com
	Model     string        // default gpt-4o-mini
	MaxTokens int           // default 1024
	Timeout   time.Duration // default 60s
}

// OpenAIProvider implements Provider against any OpenAI-compatible chat
// completions API (OpenAI, vLLM, Ollama, and most proxies).
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Strip trailing /v1 to avoid /v1/v1/chat/completions.
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	base = strings.TrimSuffix(base, "/v1")

	return &OpenAIProvider{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// --- wire types (minimal chat completions subset) ---

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage        `json:"usage,omitempty"`
	Error *apiErrorBody `json:"error,omitempty"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, NewProviderError(ErrCodeAuthFailed, "API key not configured", p.Name(), false)
	}

	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}

	body := chatCompletionRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(ErrCodeNetworkError, err.Error(), p.Name(), true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewProviderError(ErrCodeNetworkError, fmt.Sprintf("read response: %v", err), p.Name(), true)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if chatResp.Error != nil || resp.StatusCode >= 400 {
		return nil, p.classifyError(resp.StatusCode, chatResp.Error)
	}

	if len(chatResp.Choices) == 0 {
		return nil, NewProviderError(ErrCodeUnknown, "no choices returned", p.Name(), true)
	}

	choice := chatResp.Choices[0]
	return &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        chatResp.Usage,
	}, nil
}

// classifyError maps HTTP status and API error bodies to ProviderError codes.
func (p *OpenAIProvider) classifyError(status int, apiErr *apiErrorBody) error {
	msg := fmt.Sprintf("HTTP %d", status)
	if apiErr != nil && apiErr.Message != "" {
		msg = apiErr.Message
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewProviderError(ErrCodeAuthFailed, msg, p.Name(), false)
	case status == http.StatusTooManyRequests:
		return NewProviderError(ErrCodeRateLimited, msg, p.Name(), false)
	case status >= 500:
		return NewProviderError(ErrCodeServiceUnavailable, msg, p.Name(), true)
	case status >= 400:
		return NewProviderError(ErrCodeInvalidRequest, msg, p.Name(), false)
	default:
		return NewProviderError(ErrCodeUnknown, msg, p.Name(), false)
	}
}
