package llm

import (
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"}, // pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema_QuestionBatch(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 10,
				"maxItems": 10,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_text": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":     "array",
							"minItems": float64(4),
							"items":    map[string]any{"type": "string"},
						},
						"level": map[string]any{"type": "string", "enum": []any{"Basic", "Advanced"}},
					},
					"required": []any{"question_text", "options"},
				},
			},
		},
		"required": []any{"questions"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	questions := schema.Properties["questions"]
	if questions.Type != genai.TypeArray {
		t.Fatalf("expected ARRAY for questions, got %s", questions.Type)
	}
	if questions.MinItems == nil || *questions.MinItems != 10 {
		t.Fatalf("expected minItems 10, got %v", questions.MinItems)
	}
	if questions.MaxItems == nil || *questions.MaxItems != 10 {
		t.Fatalf("expected maxItems 10, got %v", questions.MaxItems)
	}
	item := questions.Items
	if item.Properties["options"].MinItems == nil || *item.Properties["options"].MinItems != 4 {
		t.Fatal("expected float minItems to be carried over")
	}
	if len(item.Properties["level"].Enum) != 2 {
		t.Fatalf("expected 2 enum values, got %d", len(item.Properties["level"].Enum))
	}
	if len(item.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(item.Required))
	}
	if len(schema.Required) != 1 {
		t.Fatalf("expected 1 required field, got %d", len(schema.Required))
	}
}

func TestClassifyGeminiStatus(t *testing.T) {
	base := errors.New("boom")

	var rl *ErrRateLimit
	if !errors.As(classifyGeminiStatus(429, base), &rl) {
		t.Error("429 should map to ErrRateLimit")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(classifyGeminiStatus(503, base), &unavail) {
		t.Error("503 should map to ErrProviderUnavailable")
	}
	var rej *ErrRejected
	if !errors.As(classifyGeminiStatus(400, base), &rej) {
		t.Error("400 should map to ErrRejected")
	}
}
