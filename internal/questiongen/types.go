package questiongen

import "github.com/abhisek/tensetrainer/internal/grammar"

// Question is a generated multiple-choice gap-fill question.
type Question struct {
	// Text is the sentence shown to the learner. It contains grammar.Blank
	// where the missing verb form goes, e.g. "Yesterday she ___ to school."
	Text string

	// Options holds exactly 4 candidate fillers, one of which is Answer.
	Options []string

	// Answer is the correct option, verbatim.
	Answer string
}

// GenerateInput describes a batch to generate.
type GenerateInput struct {
	Tense      grammar.Tense
	Difficulty grammar.Difficulty
	Count      int
}
