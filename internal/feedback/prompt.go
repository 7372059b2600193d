package feedback

import (
	"fmt"
	"strings"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

const roundSystemPrompt = `You are a friendly English grammar coach. A learner has just finished a round of ten multiple-choice tense questions. Write short feedback in Markdown.`

const finalSystemPrompt = `You are a friendly English grammar coach. A learner has just finished a three-round tense practice session of thirty questions. Write a session review in Markdown.`

func buildRoundUserMessage(incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, score int, maxMistakes int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Tense: %s\n", tense)
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	fmt.Fprintf(&b, "Score: %d/%d\n", score, grammar.QuestionsPerRound)

	b.WriteString("\nMistakes:\n")
	b.WriteString(formatMistakes(incorrect, maxMistakes, false))

	if len(incorrect) == 0 {
		b.WriteString(`
Instructions:
Every answer was correct. Congratulate the learner in one or two sentences and give exactly one tip for using the ` + string(tense) + ` even more naturally.`)
		return b.String()
	}

	b.WriteString(`
Instructions:
1. Start with one encouraging sentence that mentions the score.
2. For each mistake, explain in one or two sentences why the correct form fits and what signal in the sentence points to it.
3. End with one short tip the learner can apply in the next round.
Keep the whole reply under 200 words. Use Markdown lists, no headings.`)

	return b.String()
}

func buildFinalUserMessage(incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, roundsScores [grammar.RoundsPerSession]int, maxMistakes int) string {
	var b strings.Builder

	total := 0
	for _, s := range roundsScores {
		total += s
	}

	fmt.Fprintf(&b, "Tense: %s\n", tense)
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	for i, s := range roundsScores {
		fmt.Fprintf(&b, "Round %d: %d/%d\n", i+1, s, grammar.QuestionsPerRound)
	}
	fmt.Fprintf(&b, "Total: %d/%d\n", total, grammar.MaxSessionScore)
	fmt.Fprintf(&b, "Accuracy: %d%%\n", SessionAccuracy(len(incorrect)))

	b.WriteString("\nMistakes across the session:\n")
	b.WriteString(formatMistakes(incorrect, maxMistakes, true))

	b.WriteString(`
Instructions:
Write a review with these Markdown sections:
## Summary
Two or three sentences on overall performance and how it changed across the rounds.
## Patterns
The recurring error patterns, grouped, with one corrected example each. If there were no mistakes, say so.
## Next steps
Two or three concrete practice suggestions for this tense.
Keep the whole reply under 350 words.`)

	return b.String()
}

// formatMistakes lists mistakes for a prompt, keeping at most max entries.
func formatMistakes(incorrect []IncorrectAnswer, max int, withRound bool) string {
	if len(incorrect) == 0 {
		return "None\n"
	}

	shown := incorrect
	if max > 0 && len(shown) > max {
		shown = shown[:max]
	}

	var b strings.Builder
	for _, m := range shown {
		if withRound {
			fmt.Fprintf(&b, "- Round %d, Q%d: ", m.RoundNumber, m.QuestionNumber)
		} else {
			fmt.Fprintf(&b, "- Q%d: ", m.QuestionNumber)
		}
		fmt.Fprintf(&b, "%q answered %q, correct %q\n", m.QuestionText, m.SelectedAnswer, m.CorrectAnswer)
	}
	if len(shown) < len(incorrect) {
		fmt.Fprintf(&b, "- ...and %d more\n", len(incorrect)-len(shown))
	}
	return b.String()
}
