// Package provider defines the text-generation capability consumed by the
// compression engine, and an OpenAI-compatible implementation of it.
package provider

import "context"

// Provider is the abstract text-generation capability. Implementations are
// expected to be safe for concurrent use.
type Provider interface {
	// Name returns the provider name, used in logs and errors.
	Name() string

	// Chat sends a chat completion request and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Generate is a convenience wrapper for single-shot generation: one system
// instruction plus one user prompt, returning the response text.
func Generate(ctx context.Context, p Provider, prompt, system string) (string, error) {
	if p == nil {
		return "", ErrNoProvider
	}
	msgs := make([]Message, 0, 2)
	if system != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})

	resp, err := p.Chat(ctx, ChatRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
