package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

// OptionsValidator checks there are exactly 4 non-empty options that
// differ from each other ignoring case.
type OptionsValidator struct{}

func (v *OptionsValidator) Name() string { return "options" }

func (v *OptionsValidator) Validate(q *Question) *ValidationError {
	if len(q.Options) != grammar.OptionsPerQuestion {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected 4 options, got %d", len(q.Options)),
		}
	}

	seen := make(map[string]bool, len(q.Options))
	for i, opt := range q.Options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d is empty", i+1),
			}
		}
		if seen[key] {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %q is duplicated", opt),
			}
		}
		seen[key] = true
	}
	return nil
}
