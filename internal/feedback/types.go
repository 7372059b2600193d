// Package feedback writes Markdown feedback on a learner's mistakes, per
// round and for a whole session.
package feedback

import (
	"context"
	"errors"
	"math"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

// IncorrectAnswer is one missed question.
type IncorrectAnswer struct {
	RoundNumber    int
	QuestionNumber int
	QuestionText   string
	SelectedAnswer string
	CorrectAnswer  string
}

// Writer produces round and session feedback.
type Writer interface {
	// RoundFeedback comments on one round. score must be in 0..10.
	RoundFeedback(ctx context.Context, incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, score int) (string, error)

	// FinalFeedback comments on a whole session. Errors are always
	// returned to the caller.
	FinalFeedback(ctx context.Context, incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, roundsScores [grammar.RoundsPerSession]int) (string, error)
}

var (
	// ErrInvalidScore is returned for a round score outside 0..10.
	ErrInvalidScore = errors.New("feedback: score must be between 0 and 10")

	// ErrEmptyFeedback is returned when the model produced only whitespace.
	ErrEmptyFeedback = errors.New("feedback: model returned empty feedback")
)

// Percent returns correct/total as a whole percentage, rounding half up.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(correct)*100/float64(total) + 0.5))
}

// SessionAccuracy is the session-wide percentage implied by the number of
// incorrect answers.
func SessionAccuracy(incorrect int) int {
	return Percent(grammar.MaxSessionScore-incorrect, grammar.MaxSessionScore)
}

func checkScore(score int) error {
	if score < 0 || score > grammar.QuestionsPerRound {
		return ErrInvalidScore
	}
	return nil
}
