package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/daozhang71/chat-compressor/internal/provider"
)

// Compile-time interface check.
var _ Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder implements Embedder against an OpenAI-compatible
// embeddings API.
type OpenAIEmbedder struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	batchSize  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// OpenAIEmbedderOptions holds configuration for OpenAIEmbedder.
type OpenAIEmbedderOptions struct {
	APIKey     string
	BaseURL    string        // default https://api.openai.com
	Model      string        // default text-embedding-3-small
	Dimensions int           // default 1536
	BatchSize  int           // default 100
	Timeout    time.Duration // default 30s
	Logger     zerolog.Logger
}

// NewOpenAIEmbedder creates an OpenAIEmbedder with the given options.
func NewOpenAIEmbedder(opts OpenAIEmbedderOptions) *OpenAIEmbedder {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com"
	}
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = 1536
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		apiKey:     opts.APIKey,
		baseURL:    opts.BaseURL,
		model:      opts.Model,
		dimensions: opts.Dimensions,
		batchSize:  opts.BatchSize,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     opts.Logger,
	}
}

// --- wire types ---

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      any    `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed generates an embedding vector for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.request(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedder: empty response")
	}
	return vecs[0], nil
}

// EmbedBatch generates embedding vectors for multiple texts, splitting
// into batches of the configured size.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.request(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embedder: got %d vectors for %d inputs", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// request performs one embeddings API call. input is a string or []string.
func (e *OpenAIEmbedder) request(ctx context.Context, input any) ([][]float32, error) {
	if e.apiKey == "" {
		return nil, provider.NewProviderError(provider.ErrCodeAuthFailed, "embedding API key not configured", "openai-embed", false)
	}

	body := embeddingRequest{Model: e.model, Input: input, Dimensions: e.dimensions}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/v1/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewProviderError(provider.ErrCodeNetworkError, err.Error(), "openai-embed", true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewProviderError(provider.ErrCodeNetworkError, fmt.Sprintf("read response: %v", err), "openai-embed", true)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if embResp.Error != nil || resp.StatusCode >= 400 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if embResp.Error != nil {
			msg = embResp.Error.Message
		}
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, provider.NewProviderError(provider.ErrCodeAuthFailed, msg, "openai-embed", false)
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, provider.NewProviderError(provider.ErrCodeRateLimited, msg, "openai-embed", false)
		case resp.StatusCode >= 500:
			return nil, provider.NewProviderError(provider.ErrCodeServiceUnavailable, msg, "openai-embed", true)
		default:
			return nil, provider.NewProviderError(provider.ErrCodeInvalidRequest, msg, "openai-embed", false)
		}
	}

	// The API may return out of input order; restore by index.
	vecs := make([][]float32, len(embResp.Data))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("embedder: index %d out of range", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
