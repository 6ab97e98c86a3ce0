package llm

import (
	"errors"
	"testing"
)

func TestNewRejectsMissingKey(t *testing.T) {
	if _, err := New("openai", "", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New("gemini-llama", "key", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewSelectsProvider(t *testing.T) {
	for _, name := range []string{"openai", "anthropic"} {
		provider, err := New(name, "key", "")
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if provider == nil {
			t.Fatalf("New(%q): nil provider", name)
		}
	}
}

func TestProviderErrorWraps(t *testing.T) {
	err := providerError("openai", errors.New("boom"))
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}
