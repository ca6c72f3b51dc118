// Package llm abstracts remote structured-extraction backends. The heuristic
// engine remains the source of truth until a backend is wired up; clients
// exist so provider selection, configuration and the response contract are
// exercised end to end today.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

// ErrNotImplemented marks a provider that is configured but has no working
// backend yet. The gateway treats it as a signal to fall back to the
// heuristic engine.
var ErrNotImplemented = errors.New("provider not implemented")

// ErrUnknownProvider marks a provider name with no registered client.
var ErrUnknownProvider = errors.New("unknown provider")

// Client extracts structured voucher fields from a parsed document. The
// returned map must satisfy the response schema (see schema.go).
type Client interface {
	Provider() voucher.ProviderType
	Extract(ctx context.Context, parsed *voucher.ParsedDocument) (map[string]any, error)
}

// OpenAIClient targets the OpenAI structured-output API.
type OpenAIClient struct {
	apiKey string
	model  string
}

// NewOpenAIClient returns a client bound to the given credentials.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, model: model}
}

// Provider returns the provider identity.
func (c *OpenAIClient) Provider() voucher.ProviderType { return voucher.ProviderOpenAI }

// Extract is not wired to the remote API yet.
func (c *OpenAIClient) Extract(ctx context.Context, parsed *voucher.ParsedDocument) (map[string]any, error) {
	return nil, fmt.Errorf("openai extract: %w", ErrNotImplemented)
}

// ClaudeClient targets the Anthropic Messages API.
type ClaudeClient struct {
	apiKey string
	model  string
}

// NewClaudeClient returns a client bound to the given credentials.
func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return &ClaudeClient{apiKey: apiKey, model: model}
}

// Provider returns the provider identity.
func (c *ClaudeClient) Provider() voucher.ProviderType { return voucher.ProviderClaude }

// Extract is not wired to the remote API yet.
func (c *ClaudeClient) Extract(ctx context.Context, parsed *voucher.ParsedDocument) (map[string]any, error) {
	return nil, fmt.Errorf("claude extract: %w", ErrNotImplemented)
}

// ClientFactory resolves a provider name to its registered client.
type ClientFactory struct {
	clients map[voucher.ProviderType]Client
}

// NewClientFactory registers the given clients. Later registrations for the
// same provider win.
func NewClientFactory(clients ...Client) *ClientFactory {
	f := &ClientFactory{clients: make(map[voucher.ProviderType]Client)}
	for _, c := range clients {
		f.clients[c.Provider()] = c
	}
	return f
}

// Register adds or replaces the client for its provider.
func (f *ClientFactory) Register(c Client) {
	f.clients[c.Provider()] = c
}

// Client returns the client for a provider, or ErrUnknownProvider.
func (f *ClientFactory) Client(provider voucher.ProviderType) (Client, error) {
	c, ok := f.clients[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	return c, nil
}
