package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tensetrainer/internal/grammar"
)

// Static writes templated feedback without a model. It backs the offline
// "mock" provider mode.
type Static struct{}

func (Static) RoundFeedback(_ context.Context, incorrect []IncorrectAnswer, _ grammar.Tense, _ grammar.Difficulty, score int) (string, error) {
	if err := checkScore(score); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(FallbackRoundFeedback(score))
	if len(incorrect) > 0 {
		b.WriteString("\n\n")
		for _, m := range incorrect {
			fmt.Fprintf(&b, "- Q%d: **%s** (you chose %s)\n", m.QuestionNumber, m.CorrectAnswer, m.SelectedAnswer)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (Static) FinalFeedback(_ context.Context, incorrect []IncorrectAnswer, tense grammar.Tense, difficulty grammar.Difficulty, roundsScores [grammar.RoundsPerSession]int) (string, error) {
	total := 0
	for _, s := range roundsScores {
		total += s
	}

	var b strings.Builder
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "You finished a %s session on the %s with %d/%d (%d%%).\n",
		strings.ToLower(string(difficulty)), tense, total, grammar.MaxSessionScore, SessionAccuracy(len(incorrect)))

	b.WriteString("\n## Rounds\n")
	for i, s := range roundsScores {
		fmt.Fprintf(&b, "- Round %d: %d/%d\n", i+1, s, grammar.QuestionsPerRound)
	}

	b.WriteString("\n## Next steps\n")
	if len(incorrect) == 0 {
		b.WriteString("No mistakes at all. Try the next difficulty level or another tense.")
	} else {
		fmt.Fprintf(&b, "Review the %d questions you missed and say each corrected sentence out loud.", len(incorrect))
	}
	return b.String(), nil
}
