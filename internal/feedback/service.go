package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tensetrainer/internal/grammar"
	"github.com/abhisek/tensetrainer/internal/llm"
)

// Service writes feedback with an LLM provider.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates a feedback service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// RoundFeedback asks the model for a short review of one round's mistakes.
// A perfect round is praised without listing mistakes.
func (s *Service) RoundFeedback(ctx context.Context, incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, score int) (string, error) {
	if err := checkScore(score); err != nil {
		return "", err
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeRoundFeedback)

	req := llm.Request{
		System: roundSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildRoundUserMessage(incorrect, tense, difficulty, score, s.cfg.MaxMistakes)},
		},
		MaxTokens:   s.cfg.RoundMaxTokens,
		Temperature: s.cfg.Temperature,
	}
	return s.complete(ctx, req, "round feedback")
}

// FinalFeedback asks the model for an end-of-session review built from the
// three round scores and every incorrect answer of the session.
func (s *Service) FinalFeedback(ctx context.Context, incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, roundsScores [grammar.RoundsPerSession]int) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeFinalFeedback)

	req := llm.Request{
		System: finalSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildFinalUserMessage(incorrect, tense, difficulty, roundsScores, s.cfg.MaxMistakes)},
		},
		MaxTokens:   s.cfg.FinalMaxTokens,
		Temperature: s.cfg.Temperature,
	}
	return s.complete(ctx, req, "final feedback")
}

func (s *Service) complete(ctx context.Context, req llm.Request, what string) (string, error) {
	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", what, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s generation: %w", what, ErrEmptyFeedback)
	}
	return text, nil
}

// FallbackRoundFeedback is the templated text used when round feedback
// cannot be generated.
func FallbackRoundFeedback(score int) string {
	var note string
	switch {
	case score == grammar.QuestionsPerRound:
		note = "Perfect round, keep it up!"
	case score >= 7:
		note = "Good work. Review the questions you missed before the next round."
	case score >= 4:
		note = "Keep practising. Look at the correct answers above and notice the time expressions in each sentence."
	default:
		note = "This tense needs more practice. Go through the correct answers above slowly before you continue."
	}
	return fmt.Sprintf("You scored %d/%d. %s", score, grammar.QuestionsPerRound, note)
}
