package questiongen

import (
	"strings"
	"unicode/utf8"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

// MaxTextLength bounds question_text, in characters.
const MaxTextLength = 300

// StructuralValidator checks the question sentence itself.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return &ValidationError{Validator: v.Name(), Message: "question_text is empty"}
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return &ValidationError{Validator: v.Name(), Message: "question_text exceeds 300 characters"}
	}
	if !strings.Contains(text, grammar.Blank) {
		return &ValidationError{Validator: v.Name(), Message: "question_text has no ___ blank"}
	}
	return nil
}
