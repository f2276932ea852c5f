package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Client defines the interface for LLM providers. One request, one
// response, no streaming; the caller owns all prompt construction and all
// response parsing.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the LLM extraction layer.
type Config struct {
	Provider    string
	Model       string
	APIKeys     map[string]string // key slot name -> credential
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewClients creates one provider client per configured API key slot,
// keyed by slot name (primary/secondary/tertiary).
func NewClients(cfg Config) (map[string]Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("no API keys configured")
	}

	clients := make(map[string]Client, len(cfg.APIKeys))
	for slot, key := range cfg.APIKeys {
		keyCfg := cfg
		client, err := newClientForKey(keyCfg, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for %s key: %w", slot, err)
		}
		clients[slot] = client
	}
	return clients, nil
}

func newClientForKey(cfg Config, apiKey string) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return newGeminiClient(cfg, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
