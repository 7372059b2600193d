package questiongen

import (
	"fmt"

	"github.com/abhisek/tensetrainer/internal/llm"
)

// BatchSchema builds the response schema for a batch of exactly count
// questions. The name includes the count so compiled schemas are cached
// per size.
func BatchSchema(count int) *llm.Schema {
	return &llm.Schema{
		Name:        fmt.Sprintf("tense-question-batch-%d", count),
		Description: "A batch of multiple-choice gap-fill grammar questions",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"minItems": count,
					"maxItems": count,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"question_text": map[string]any{
								"type":        "string",
								"description": "One sentence containing ___ where the verb form is missing",
							},
							"options": map[string]any{
								"type":        "array",
								"minItems":    4,
								"maxItems":    4,
								"items":       map[string]any{"type": "string"},
								"description": "Exactly 4 distinct candidate fillers",
							},
							"correct_answer": map[string]any{
								"type":        "string",
								"description": "The correct option, copied verbatim from options",
							},
						},
						"required":             []any{"question_text", "options", "correct_answer"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"questions"},
			"additionalProperties": false,
		},
	}
}
