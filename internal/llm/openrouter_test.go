package llm

import "testing"

func TestNewOpenRouterProvider(t *testing.T) {
	t.Run("passes model through", func(t *testing.T) {
		p, err := NewOpenRouterProvider(OpenRouterConfig{
			APIKey: "sk-or-test",
			Model:  "google/gemini-2.5-flash",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != "google/gemini-2.5-flash" {
			t.Errorf("model = %q, want %q", p.ModelID(), "google/gemini-2.5-flash")
		}
	})

	t.Run("empty API key", func(t *testing.T) {
		_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "meta-llama/llama-3-8b"})
		if err == nil {
			t.Fatal("expected error for empty API key")
		}
	})

	t.Run("satisfies Provider", func(t *testing.T) {
		p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or-test", Model: "openai/gpt-4o-mini"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var _ Provider = p
	})
}
