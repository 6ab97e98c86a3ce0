// Package llm sends prompts to an external language-model provider. One
// blocking call per question, no retry, no cache: a provider failure is
// wrapped in ErrProvider and surfaced to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider marks any failure returned by the external provider.
var ErrProvider = errors.New("llm provider error")

// Provider answers a single prompt.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// New selects a provider implementation by name.
func New(provider, apiKey, model string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required for provider %q", provider)
	}
	switch provider {
	case "openai":
		return newOpenAI(apiKey, model), nil
	case "anthropic":
		return newAnthropic(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q (supported: openai, anthropic)", provider)
	}
}

func providerError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProvider, provider, err)
}
