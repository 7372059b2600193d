package questiongen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated question; the first
	// failure fails the batch.
	Validators []Validator

	// MaxTokens is the token budget for a batch of MaxBatch questions.
	// Smaller batches scale it down.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&OptionsValidator{},
			&AnswerValidator{},
		},
		MaxTokens:   4096,
		Temperature: 0.8,
	}
}

// tokenBudget scales MaxTokens to the batch size, with a floor that
// still fits a couple of questions.
func (c Config) tokenBudget(count int) int {
	budget := c.MaxTokens * count / MaxBatch
	if budget < 512 {
		budget = 512
	}
	return budget
}
