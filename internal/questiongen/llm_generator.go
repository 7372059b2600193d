package questiongen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/llm"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

// batchOutput is the raw LLM response before validation.
type batchOutput struct {
	Questions []questionOutput `json:"questions"`
}

type questionOutput struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// GenerateQuestions produces exactly count validated questions.
func (g *LLMGenerator) GenerateQuestions(ctx context.Context, tense grammar.Tense, difficulty grammar.Difficulty, count int) ([]Question, error) {
	if err := checkCount(count); err != nil {
		return nil, err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeQuestions)

	input := GenerateInput{Tense: tense, Difficulty: difficulty, Count: count}
	schema := BatchSchema(count)

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input)},
		},
		Schema:      schema,
		MaxTokens:   g.config.tokenBudget(count),
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, &GenerationError{Stage: "provider", Err: err}
	}

	// Providers validate already; the mock and any future adapter may not,
	// so the batch is checked again before it is trusted.
	if err := llm.ValidateJSON(schema, resp.Content); err != nil {
		return nil, &GenerationError{Stage: "parse", Err: err}
	}

	var raw batchOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, &GenerationError{Stage: "parse", Err: fmt.Errorf("decode batch: %w", err)}
	}
	if len(raw.Questions) != count {
		return nil, &GenerationError{
			Stage: "count",
			Err:   fmt.Errorf("expected %d questions, got %d", count, len(raw.Questions)),
		}
	}

	questions := make([]Question, len(raw.Questions))
	for i, out := range raw.Questions {
		q := Question{
			Text:    strings.TrimSpace(out.QuestionText),
			Options: out.Options,
			Answer:  out.CorrectAnswer,
		}
		for _, v := range g.config.Validators {
			if verr := v.Validate(&q); verr != nil {
				return nil, &GenerationError{Stage: verr.Validator, Index: i + 1, Err: verr}
			}
		}
		questions[i] = q
	}

	return questions, nil
}
