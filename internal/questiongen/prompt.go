package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

const systemPrompt = `You are an English teacher writing grammar practice for adult learners.

Rules:
- Write multiple-choice gap-fill questions that practise exactly one tense.
- Each question is a single natural sentence with ___ (three underscores) where the verb form is missing.
- Give exactly 4 options. Exactly one is correct; the others are plausible forms of the same verb in other tenses or with agreement mistakes.
- Options must be distinct and contain only the words that fill the gap.
- correct_answer must be copied verbatim from options.
- Vary subjects, verbs and topics. Do not repeat a sentence within the batch.
- Keep each sentence under 200 characters. Plain text only, no numbering.`

// buildUserMessage describes the batch to the model.
func buildUserMessage(input GenerateInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tense: %s\n", input.Tense)
	if usage := input.Tense.Usage(); usage != "" {
		fmt.Fprintf(&b, "Used for: %s\n", usage)
	}
	fmt.Fprintf(&b, "Difficulty: %s (%s)\n", input.Difficulty, input.Difficulty.Guidance())
	fmt.Fprintf(&b, "Number of questions: %d\n", input.Count)
	fmt.Fprintf(&b, "Blank marker: %s\n", grammar.Blank)

	return b.String()
}
