package feedback

// Config holds feedback generation settings.
type Config struct {
	RoundMaxTokens int
	FinalMaxTokens int
	Temperature    float64

	// MaxMistakes caps how many incorrect answers are quoted in a prompt.
	MaxMistakes int
}

// DefaultConfig returns sensible defaults for feedback generation.
func DefaultConfig() Config {
	return Config{
		RoundMaxTokens: 600,
		FinalMaxTokens: 1200,
		Temperature:    0.5,
		MaxMistakes:    30,
	}
}
