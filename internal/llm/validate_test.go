package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func batchSchema() *Schema {
	return &Schema{
		Name: "test-batch",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"items": map[string]any{
					"type":     "array",
					"minItems": 2,
					"maxItems": 2,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"text":  map[string]any{"type": "string", "minLength": 1},
							"level": map[string]any{"type": "string", "enum": []any{"Basic", "Advanced"}},
						},
						"required": []any{"text", "level"},
					},
				},
			},
			"required": []any{"items"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"items":[{"text":"a","level":"Basic"},{"text":"b","level":"Advanced"}]}`, false},
		{"too few items", `{"items":[{"text":"a","level":"Basic"}]}`, true},
		{"missing required", `{"items":[{"text":"a"},{"text":"b","level":"Basic"}]}`, true},
		{"bad enum", `{"items":[{"text":"a","level":"Hard"},{"text":"b","level":"Basic"}]}`, true},
		{"empty string", `{"items":[{"text":"","level":"Basic"},{"text":"b","level":"Basic"}]}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(batchSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
			}
		})
	}
}

func TestValidateJSON_NilSchema(t *testing.T) {
	if err := ValidateJSON(nil, json.RawMessage(`{"anything":"goes"}`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestCompileSchema_Cached(t *testing.T) {
	s := batchSchema()
	first, err := compileSchema(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := compileSchema(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatal("expected cached compiled schema to be reused")
	}
}
