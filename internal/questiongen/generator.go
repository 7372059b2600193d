package questiongen

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

// MaxBatch is the largest batch a single call may request.
const MaxBatch = 20

// ErrInvalidCount is returned when count is outside 1..MaxBatch.
var ErrInvalidCount = errors.New("questiongen: count must be between 1 and 20")

// Generator produces batches of tense questions.
type Generator interface {
	// GenerateQuestions returns exactly count validated questions or an
	// error. Partial batches are never returned.
	GenerateQuestions(ctx context.Context, tense grammar.Tense, difficulty grammar.Difficulty, count int) ([]Question, error)
}

// GenerationError reports a failed batch. Stage is "provider", "parse",
// "count" or a validator name.
type GenerationError struct {
	Stage string
	Index int // 1-based question index, 0 when the whole batch failed
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("question generation failed at %s (question %d): %v", e.Stage, e.Index, e.Err)
	}
	return fmt.Sprintf("question generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func checkCount(count int) error {
	if count < 1 || count > MaxBatch {
		return ErrInvalidCount
	}
	return nil
}
