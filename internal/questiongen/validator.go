package questiongen

import "fmt"

// Validator checks a generated question. Implementations are stateless
// and safe for concurrent use.
type Validator interface {
	// Name is a short identifier used in errors, e.g. "structural".
	Name() string

	// Validate returns nil if q passes.
	Validate(q *Question) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
