package questiongen

// AnswerValidator checks that the correct answer is one of the options.
type AnswerValidator struct{}

func (v *AnswerValidator) Name() string { return "answer" }

func (v *AnswerValidator) Validate(q *Question) *ValidationError {
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return &ValidationError{
		Validator: v.Name(),
		Message:   "correct_answer \"" + q.Answer + "\" is not one of the options",
	}
}
